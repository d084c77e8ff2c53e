package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/dbx"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

const selectColumns = `id, obscured_message_id, salted_hashed_fid, shifted_timestamp::text,
	encrypted_message, obscured_hashed_text, partition_id, schema_version, created_at, deleted_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w: %w", common.ErrUpstreamUnavailable, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.StoredRecord, error) {
	rec := &models.StoredRecord{}
	var deletedAt sql.NullTime
	err := s.Scan(&rec.ID, &rec.ObscuredMessageID, &rec.SaltedHashedFid, &rec.ShiftedTimestamp,
		&rec.EncryptedMessage, &rec.ObscuredHashedText, &rec.PartitionID, &rec.SchemaVersion,
		&rec.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.Time
	}
	return rec, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.StoredRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, dbError(err)
	}
	return rec, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.StoredRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var result []*models.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, dbError(err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Upsert inserts rec or, on a (partition, schema, obscured id) clash,
// overwrites the derived columns in place. deleted_at is written on insert
// only: an imported tombstone stays deleted and a conflict never revives or
// retires an existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.StoredRecord) error {
	query := `INSERT INTO stored_data
		(obscured_message_id, salted_hashed_fid, shifted_timestamp, encrypted_message, obscured_hashed_text, partition_id, schema_version, deleted_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
		ON CONFLICT (partition_id, schema_version, obscured_message_id) DO UPDATE
		SET salted_hashed_fid = EXCLUDED.salted_hashed_fid,
			shifted_timestamp = EXCLUDED.shifted_timestamp,
			encrypted_message = EXCLUDED.encrypted_message,
			obscured_hashed_text = EXCLUDED.obscured_hashed_text,
			partition_id = EXCLUDED.partition_id`

	_, err := r.db.ExecContext(ctx, query,
		rec.ObscuredMessageID, rec.SaltedHashedFid, rec.ShiftedTimestamp, rec.EncryptedMessage,
		rec.ObscuredHashedText, rec.PartitionID, rec.SchemaVersion, nullTime(rec.DeletedAt))
	if err != nil {
		return dbError(err)
	}
	return nil
}

// GetByObscuredID looks a message up by its obscured id. The id depends only
// on the salt, so the same message may sit in several partitions; a row of
// partitionID is preferred.
func (r *PostgresRepository) GetByObscuredID(ctx context.Context, obscuredMessageID, partitionID, schemaVersion string) (*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_data
		WHERE obscured_message_id = $1 AND deleted_at IS NULL AND schema_version = $2
		ORDER BY partition_id = $3 DESC, id ASC
		LIMIT 1`
	return r.queryOne(ctx, query, obscuredMessageID, schemaVersion, partitionID)
}

func (r *PostgresRepository) ListByFid(ctx context.Context, q ListQuery) ([]*models.StoredRecord, error) {
	var sb strings.Builder
	args := []any{q.SaltedHashedFid, q.PartitionID, q.SchemaVersion}

	sb.WriteString(`SELECT ` + selectColumns + ` FROM stored_data
		WHERE salted_hashed_fid = $1 AND partition_id = $2 AND schema_version = $3 AND deleted_at IS NULL`)

	order := "DESC"
	cmp := "<"
	if q.Ascending {
		order = "ASC"
		cmp = ">"
	}

	if q.After != nil {
		args = append(args, q.After.ShiftedTimestamp, q.After.ID)
		sb.WriteString(" AND (shifted_timestamp, id) " + cmp +
			" ($" + strconv.Itoa(len(args)-1) + "::numeric, $" + strconv.Itoa(len(args)) + ")")
	}

	args = append(args, q.Limit)
	sb.WriteString(" ORDER BY shifted_timestamp " + order + ", id " + order + " LIMIT $" + strconv.Itoa(len(args)))

	return r.queryMany(ctx, sb.String(), args...)
}

func (r *PostgresRepository) GetByHashedText(ctx context.Context, partitionID, saltedHashedFid, obscuredHashedText, schemaVersion string) (*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_data
		WHERE salted_hashed_fid = $1 AND obscured_hashed_text = $2 AND partition_id = $3
			AND schema_version = $4 AND deleted_at IS NULL
		ORDER BY shifted_timestamp DESC
		LIMIT 1`
	return r.queryOne(ctx, query, saltedHashedFid, obscuredHashedText, partitionID, schemaVersion)
}

// Earliest returns the oldest live rows of a partition whose shifted
// timestamp is above 1.
func (r *PostgresRepository) Earliest(ctx context.Context, partitionID, schemaVersion string, limit int) ([]*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_data
		WHERE partition_id = $1 AND schema_version = $2 AND deleted_at IS NULL
			AND shifted_timestamp > 1
		ORDER BY shifted_timestamp ASC, id ASC
		LIMIT $3`
	return r.queryMany(ctx, query, partitionID, schemaVersion, limit)
}

// ListRecent returns the most recently inserted live rows across partitions.
func (r *PostgresRepository) ListRecent(ctx context.Context, schemaVersion string, limit int) ([]*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_data
		WHERE schema_version = $1 AND deleted_at IS NULL
		ORDER BY id DESC
		LIMIT $2`
	return r.queryMany(ctx, query, schemaVersion, limit)
}

// ListPartition returns every live row of a partition, oldest first.
func (r *PostgresRepository) ListPartition(ctx context.Context, partitionID, schemaVersion string) ([]*models.StoredRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_data
		WHERE partition_id = $1 AND schema_version = $2 AND deleted_at IS NULL
		ORDER BY shifted_timestamp ASC, id ASC`
	return r.queryMany(ctx, query, partitionID, schemaVersion)
}

// MarkForPruning soft-deletes live rows below boundary. Rows already marked
// keep their original deleted_at, so repeated sweeps are no-ops.
func (r *PostgresRepository) MarkForPruning(ctx context.Context, partitionID, schemaVersion string, boundary *big.Int, now time.Time) (int64, error) {
	query := `UPDATE stored_data SET deleted_at = $1
		WHERE partition_id = $2 AND schema_version = $3
			AND deleted_at IS NULL AND shifted_timestamp < $4::numeric`

	res, err := r.db.ExecContext(ctx, query, now, partitionID, schemaVersion, boundary.String())
	if err != nil {
		return 0, dbError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
