package handlers

import (
	"errors"
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/inventory_review/appctx"
	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
	"bitbucket.org/mmdatafocus/inventory_review/suggest"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"bitbucket.org/mmdatafocus/inventory_review/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReviewHandler exposes the review loop as JSON endpoints.
type ReviewHandler struct {
	Service       *workflow.Service
	Suggestions   *suggest.Registry
	InitialSource string
	logger        *logrus.Logger
}

func NewReviewHandler(svc *workflow.Service, registry *suggest.Registry, initialSource string) *ReviewHandler {
	return &ReviewHandler{
		Service:       svc,
		Suggestions:   registry,
		InitialSource: initialSource,
		logger:        config.GetLogger(),
	}
}

func (h *ReviewHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/next", h.Next())
	rg.POST("/act", h.Act())
	rg.POST("/undo", h.Undo())
	rg.GET("/stats", h.Stats())
	rg.GET("/sources", h.Sources())
	rg.GET("/suggest/:source", h.Suggest())
	rg.GET("/details/:source", h.Details())
}

type actRequest struct {
	Sku         string `json:"sku" binding:"required"`
	Action      string `json:"action" binding:"required,oneof=confirm reject skip"`
	MatchedName string `json:"matched_name" binding:"omitempty,max=500"`
	Barcode     string `json:"barcode" binding:"omitempty,max=64"`
}

func session(c *gin.Context) string {
	s, _ := appctx.GetWorkerSession(c.Request.Context())
	return s
}

// Next checks out a record for the caller and, unless disabled, runs the
// initial catalog search on its product name.
func (h *ReviewHandler) Next() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		checkout, err := h.Service.Checkout(ctx, session(c))
		if err != nil {
			respondError(c, err)
			return
		}

		rec := checkout.Record
		body := gin.H{
			"status":    StatusOK,
			"sku":       rec.Sku(),
			"record":    rec.Values,
			"remaining": checkout.Remaining,
		}

		if h.Suggestions != nil && h.InitialSource != "" && !config.SkipInitialSuggestions() {
			candidates, err := h.Suggestions.Suggest(ctx, h.InitialSource, rec.Get(models.ColumnProductName))
			if err != nil {
				h.logger.WithFields(logrus.Fields{
					"field":  "next",
					"source": h.InitialSource,
				}).Warn("initial suggestions unavailable: " + err.Error())
				candidates = []suggest.Candidate{}
			}
			body["suggestion_source"] = h.InitialSource
			body["suggestions"] = candidates
		}
		c.JSON(http.StatusOK, body)
	}
}

func (h *ReviewHandler) Act() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, utils.ProcessValidationErrors(err))
			return
		}
		action, err := workflow.ParseAction(req.Action)
		if err != nil {
			respondValidation(c, map[string]string{"Action": "oneof"})
			return
		}
		sku := strings.TrimSpace(req.Sku)

		var match *workflow.Match
		if action == workflow.ActionConfirm && (req.MatchedName != "" || req.Barcode != "") {
			match = &workflow.Match{
				MatchedName: strings.TrimSpace(req.MatchedName),
				Barcode:     strings.TrimSpace(req.Barcode),
			}
		}

		if err := h.Service.Act(c.Request.Context(), session(c), sku, action, match); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  StatusOK,
			"action":  action,
			"sku":     sku,
			"message": actionMessage(action, sku),
		})
	}
}

func actionMessage(action workflow.Action, sku string) string {
	switch action {
	case workflow.ActionConfirm:
		return "Product " + sku + " confirmed and moved to finalized inventory."
	case workflow.ActionReject:
		return "Product " + sku + " marked as not matched."
	case workflow.ActionSkip:
		return "Product " + sku + " skipped."
	}
	return ""
}

func (h *ReviewHandler) Undo() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.Service.Undo(c.Request.Context(), session(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  StatusOK,
			"kind":    result.Kind,
			"sku":     result.Sku,
			"message": "Undid " + string(result.Kind) + " on " + result.Sku + ".",
		})
	}
}

func (h *ReviewHandler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.Service.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusOK, "stats": stats})
	}
}

func (h *ReviewHandler) Sources() gin.HandlerFunc {
	return func(c *gin.Context) {
		names := []string{}
		if h.Suggestions != nil {
			names = h.Suggestions.Names()
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusOK, "sources": names})
	}
}

func (h *ReviewHandler) Suggest() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			respondValidation(c, map[string]string{"q": "required"})
			return
		}
		if h.Suggestions == nil {
			respondError(c, suggest.ErrUnknownSource)
			return
		}
		candidates, err := h.Suggestions.Suggest(c.Request.Context(), c.Param("source"), query)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusOK, "products": candidates})
	}
}

func (h *ReviewHandler) Details() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.TrimSpace(c.Query("code"))
		if code == "" {
			respondValidation(c, map[string]string{"code": "required"})
			return
		}
		if h.Suggestions == nil {
			respondError(c, suggest.ErrUnknownSource)
			return
		}
		details, err := h.Suggestions.Details(c.Request.Context(), c.Param("source"), code)
		if err != nil {
			respondError(c, err)
			return
		}
		if details == nil || details.Barcode == "" {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  StatusError,
				"kind":    KindNotFound,
				"message": "Barcode not found.",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusOK, "product": details})
	}
}

// ErrorLogger logs every error attached to the request after the handler ran.
func ErrorLogger() gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		c.Next()
		for _, ginErr := range c.Errors {
			cid, _ := appctx.GetCorrelationId(c.Request.Context())
			entry := logger.WithFields(logrus.Fields{
				"field":          "http",
				"method":         c.Request.Method,
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			})
			var storeErr *models.StoreError
			if c.Writer.Status() >= http.StatusInternalServerError || errors.As(ginErr.Err, &storeErr) {
				entry.Error(ginErr.Error())
			} else {
				entry.Info(ginErr.Error())
			}
		}
	}
}
