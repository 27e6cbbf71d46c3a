package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"bitbucket.org/mmdatafocus/inventory_review/suggest"
	"bitbucket.org/mmdatafocus/inventory_review/workflow"
	"github.com/gin-gonic/gin"
)

const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Outcome kinds. Each workflow outcome maps to exactly one kind so the review
// UI can tell them apart.
const (
	KindEmptyQueue     = "empty_queue"
	KindRecordNotFound = "record_not_found"
	KindNotOwner       = "not_owner"
	KindNothingToUndo  = "nothing_to_undo"
	KindMissingSession = "missing_session"
	KindBusy           = "busy"
	KindStoreError     = "store_error"
	KindValidation     = "validation"
	KindUnknownSource  = "unknown_source"
	KindNotFound       = "not_found"
	KindInternal       = "internal"
)

type outcome struct {
	status  int
	kind    string
	message string
}

// classify maps an error to its HTTP status, kind and user-facing message.
func classify(err error) outcome {
	var storeErr *models.StoreError
	switch {
	case errors.Is(err, workflow.ErrEmptyQueue):
		return outcome{http.StatusOK, KindEmptyQueue, "All products have been processed."}
	case errors.Is(err, workflow.ErrRecordNotFound):
		return outcome{http.StatusNotFound, KindRecordNotFound, "This product is no longer in the pending list. It may have been handled by someone else."}
	case errors.Is(err, workflow.ErrNotOwner):
		return outcome{http.StatusForbidden, KindNotOwner, "You do not have permission to modify this item."}
	case errors.Is(err, workflow.ErrNothingToUndo):
		return outcome{http.StatusConflict, KindNothingToUndo, "There is nothing to undo."}
	case errors.Is(err, workflow.ErrMissingSession):
		return outcome{http.StatusUnauthorized, KindMissingSession, "Your session has expired. Reload the page."}
	case errors.As(err, &storeErr):
		// checked before busy: a store call that timed out is not lock contention
		return outcome{http.StatusBadGateway, KindStoreError, "Could not reach inventory storage. Your last action was not saved."}
	case errors.Is(err, workflow.ErrLockNotObtained):
		return outcome{http.StatusServiceUnavailable, KindBusy, "The inventory is busy. Please try again."}
	case errors.Is(err, suggest.ErrUnknownSource), errors.Is(err, suggest.ErrDetailsNotSupported):
		return outcome{http.StatusBadRequest, KindUnknownSource, err.Error()}
	}
	return outcome{http.StatusInternalServerError, KindInternal, "An unexpected error occurred. Please try again later."}
}

// respondError records err on the context for the error logger and writes
// the classified body.
func respondError(c *gin.Context, err error) {
	o := classify(err)
	status := StatusError
	if o.kind == KindEmptyQueue {
		status = StatusEmpty
	} else {
		_ = c.Error(err)
	}
	c.JSON(o.status, gin.H{
		"status":  status,
		"kind":    o.kind,
		"message": o.message,
	})
}

func respondValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  StatusError,
		"kind":    KindValidation,
		"message": "invalid request",
		"fields":  fields,
	})
}
