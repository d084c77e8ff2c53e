// Package records persists StoredRecord rows in the stored_data table.
package records

import (
	"context"
	"math/big"
	"time"

	"github.com/dmitrijs2005/whistles/internal/server/models"
)

// Cursor is the position of the last row of a page. Rows are ordered by
// (ShiftedTimestamp, ID), so equal timestamps still have a strict order.
type Cursor struct {
	ShiftedTimestamp string
	ID               int64
}

// ListQuery selects a page of one author's rows inside a partition.
// After is an exclusive bound; nil means from the start.
type ListQuery struct {
	PartitionID     string
	SaltedHashedFid string
	SchemaVersion   string
	Ascending       bool
	After           *Cursor
	Limit           int
}

// Repository is the storage port. Every read skips soft-deleted rows unless
// stated otherwise; a missing row is common.ErrNotFound and any driver
// failure wraps common.ErrUpstreamUnavailable.
type Repository interface {
	Upsert(ctx context.Context, rec *models.StoredRecord) error
	GetByObscuredID(ctx context.Context, obscuredMessageID, partitionID, schemaVersion string) (*models.StoredRecord, error)
	ListByFid(ctx context.Context, q ListQuery) ([]*models.StoredRecord, error)
	GetByHashedText(ctx context.Context, partitionID, saltedHashedFid, obscuredHashedText, schemaVersion string) (*models.StoredRecord, error)
	Earliest(ctx context.Context, partitionID, schemaVersion string, limit int) ([]*models.StoredRecord, error)
	ListRecent(ctx context.Context, schemaVersion string, limit int) ([]*models.StoredRecord, error)
	ListPartition(ctx context.Context, partitionID, schemaVersion string) ([]*models.StoredRecord, error)
	MarkForPruning(ctx context.Context, partitionID, schemaVersion string, boundary *big.Int, now time.Time) (int64, error)
}
