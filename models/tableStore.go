package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/sirupsen/logrus"
)

// Table names a stored snapshot and the columns it starts with when absent.
type Table struct {
	Key     string
	Columns []string
}

func PendingTableAt(key string) Table {
	return Table{Key: key, Columns: PendingColumns}
}

func FinalizedTableAt(key string) Table {
	return Table{Key: key, Columns: FinalizedColumns}
}

// StoreError wraps any failure to read or write a table snapshot.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TableStore loads and saves whole snapshots. Load never fails for a missing
// key; it returns an empty snapshot with the table's canonical columns.
type TableStore interface {
	Load(ctx context.Context, table Table) (*Snapshot, error)
	Save(ctx context.Context, table Table, snapshot *Snapshot) error
}

// XlsxTableStore keeps each table as one xlsx object in a blob store.
type XlsxTableStore struct {
	Blobs  utils.BlobStore
	Logger *logrus.Logger
}

func NewXlsxTableStore(blobs utils.BlobStore) *XlsxTableStore {
	return &XlsxTableStore{Blobs: blobs, Logger: config.GetLogger()}
}

func (s *XlsxTableStore) Load(ctx context.Context, table Table) (*Snapshot, error) {
	data, err := s.Blobs.Get(ctx, table.Key)
	if errors.Is(err, utils.ErrBlobNotFound) {
		s.Logger.WithFields(logrus.Fields{"key": table.Key}).Info("table not found, starting empty")
		return NewSnapshot(table.Columns), nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Key: table.Key, Err: err}
	}
	snapshot, err := DecodeXLSX(data)
	if err != nil {
		return nil, &StoreError{Op: "decode", Key: table.Key, Err: err}
	}
	if len(snapshot.Columns) == 0 {
		snapshot.Columns = append([]string{}, table.Columns...)
	}
	s.Logger.WithFields(logrus.Fields{"key": table.Key, "rows": snapshot.Len()}).Debug("table loaded")
	return snapshot, nil
}

func (s *XlsxTableStore) Save(ctx context.Context, table Table, snapshot *Snapshot) error {
	data, err := EncodeXLSX(snapshot)
	if err != nil {
		return &StoreError{Op: "encode", Key: table.Key, Err: err}
	}
	if err := s.Blobs.Put(ctx, table.Key, data, utils.ContentTypeXLSX); err != nil {
		return &StoreError{Op: "save", Key: table.Key, Err: err}
	}
	s.Logger.WithFields(logrus.Fields{"key": table.Key, "rows": snapshot.Len()}).Debug("table saved")
	return nil
}
