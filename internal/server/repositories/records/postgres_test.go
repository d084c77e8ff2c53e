package records

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{
	"id", "obscured_message_id", "salted_hashed_fid", "shifted_timestamp", "encrypted_message",
	"obscured_hashed_text", "partition_id", "schema_version", "created_at", "deleted_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleRecord() *models.StoredRecord {
	return &models.StoredRecord{
		ID:                 7,
		ObscuredMessageID:  "mid",
		SaltedHashedFid:    "fidhash",
		ShiftedTimestamp:   "1679481100000",
		EncryptedMessage:   `{"i":"AAAA","e":"BBBB"}`,
		ObscuredHashedText: "",
		PartitionID:        "pid",
		SchemaVersion:      "v1",
	}
}

func addRecordRow(rows *sqlmock.Rows, rec *models.StoredRecord, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(rec.ID, rec.ObscuredMessageID, rec.SaltedHashedFid, rec.ShiftedTimestamp, rec.EncryptedMessage,
		rec.ObscuredHashedText, rec.PartitionID, rec.SchemaVersion, createdAt, nil)
}

func TestUpsert_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	rec := sampleRecord()

	mock.ExpectExec(`INSERT INTO stored_data .* ON CONFLICT \(partition_id, schema_version, obscured_message_id\) DO UPDATE SET .*`).
		WithArgs("mid", "fidhash", "1679481100000", rec.EncryptedMessage, "", "pid", "v1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_SameKeyTwiceUsesConflictPath(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	rec := sampleRecord()

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`INSERT INTO stored_data .* ON CONFLICT .* DO UPDATE`).
			WithArgs("mid", "fidhash", "1679481100000", rec.EncryptedMessage, "", "pid", "v1", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_KeepsImportedDeletion(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	rec := sampleRecord()
	deleted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec.DeletedAt = &deleted

	mock.ExpectExec(`INSERT INTO stored_data \(.*, deleted_at\) VALUES \(.*, \$8\) ON CONFLICT .* DO UPDATE SET (?:(?:salted_hashed_fid|shifted_timestamp|encrypted_message|obscured_hashed_text|partition_id) = EXCLUDED\.\w+,?\s*)+$`).
		WithArgs("mid", "fidhash", "1679481100000", rec.EncryptedMessage, "", "pid", "v1", deleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO stored_data`).WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "db is down")
}

func TestGetByObscuredID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	rec := sampleRecord()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM stored_data WHERE obscured_message_id = \$1 AND deleted_at IS NULL AND schema_version = \$2 ORDER BY partition_id = \$3 DESC, id ASC LIMIT 1`).
		WithArgs("mid", "v1", "pid").
		WillReturnRows(addRecordRow(sqlmock.NewRows(recordColumns), rec, created))

	got, err := repo.GetByObscuredID(context.Background(), "mid", "pid", "v1")
	require.NoError(t, err)

	rec.CreatedAt = created
	assert.Equal(t, rec, got)
}

func TestGetByObscuredID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM stored_data`).
		WithArgs("missing", "v1", "pid").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByObscuredID(context.Background(), "missing", "pid", "v1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByFid_Pagination(t *testing.T) {
	tests := []struct {
		name    string
		q       ListQuery
		pattern string
		args    []driver.Value
	}{
		{
			name:    "ascending without cursor",
			q:       ListQuery{PartitionID: "pid", SaltedHashedFid: "f", SchemaVersion: "v1", Ascending: true, Limit: 11},
			pattern: `WHERE salted_hashed_fid = \$1 AND partition_id = \$2 AND schema_version = \$3 AND deleted_at IS NULL ORDER BY shifted_timestamp ASC, id ASC LIMIT \$4$`,
			args:    []driver.Value{"f", "pid", "v1", 11},
		},
		{
			name:    "descending with cursor",
			q:       ListQuery{PartitionID: "pid", SaltedHashedFid: "f", SchemaVersion: "v1", After: &Cursor{ShiftedTimestamp: "500", ID: 12}, Limit: 3},
			pattern: `AND \(shifted_timestamp, id\) < \(\$4::numeric, \$5\) ORDER BY shifted_timestamp DESC, id DESC LIMIT \$6$`,
			args:    []driver.Value{"f", "pid", "v1", "500", int64(12), 3},
		},
		{
			name:    "ascending with cursor",
			q:       ListQuery{PartitionID: "pid", SaltedHashedFid: "f", SchemaVersion: "v1", Ascending: true, After: &Cursor{ShiftedTimestamp: "500", ID: 12}, Limit: 3},
			pattern: `AND \(shifted_timestamp, id\) > \(\$4::numeric, \$5\) ORDER BY shifted_timestamp ASC, id ASC LIMIT \$6$`,
			args:    []driver.Value{"f", "pid", "v1", "500", int64(12), 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			rows := sqlmock.NewRows(recordColumns)
			addRecordRow(rows, sampleRecord(), time.Time{})
			addRecordRow(rows, sampleRecord(), time.Time{})

			mock.ExpectQuery(tt.pattern).WithArgs(tt.args...).WillReturnRows(rows)

			got, err := repo.ListByFid(context.Background(), tt.q)
			require.NoError(t, err)
			assert.Len(t, got, 2)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListByFid_ScanError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"only_one"}).AddRow("x")
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	_, err := repo.ListByFid(context.Background(), ListQuery{Limit: 1})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestListByFid_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(recordColumns)
	addRecordRow(rows, sampleRecord(), time.Time{})
	rows.RowError(0, errors.New("broken row"))
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	_, err := repo.ListByFid(context.Background(), ListQuery{Limit: 1})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestGetByHashedText(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	rec := sampleRecord()
	rec.ObscuredHashedText = "th"

	mock.ExpectQuery(`WHERE salted_hashed_fid = \$1 AND obscured_hashed_text = \$2 AND partition_id = \$3`).
		WithArgs("fidhash", "th", "pid", "v1").
		WillReturnRows(addRecordRow(sqlmock.NewRows(recordColumns), rec, time.Time{}))

	got, err := repo.GetByHashedText(context.Background(), "pid", "fidhash", "th", "v1")
	require.NoError(t, err)
	assert.Equal(t, "th", got.ObscuredHashedText)
}

func TestEarliestAndRecentAndPartition(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE partition_id = \$1 AND schema_version = \$2 AND deleted_at IS NULL AND shifted_timestamp > 1 ORDER BY shifted_timestamp ASC, id ASC LIMIT \$3`).
		WithArgs("pid", "v1", 20).
		WillReturnRows(addRecordRow(sqlmock.NewRows(recordColumns), sampleRecord(), time.Time{}))
	mock.ExpectQuery(`WHERE schema_version = \$1 AND deleted_at IS NULL ORDER BY id DESC LIMIT \$2`).
		WithArgs("v1", 10).
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mock.ExpectQuery(`WHERE partition_id = \$1 AND schema_version = \$2 AND deleted_at IS NULL ORDER BY shifted_timestamp ASC, id ASC$`).
		WithArgs("pid", "v1").
		WillReturnRows(addRecordRow(sqlmock.NewRows(recordColumns), sampleRecord(), time.Time{}))

	earliest, err := repo.Earliest(context.Background(), "pid", "v1", 20)
	require.NoError(t, err)
	assert.Len(t, earliest, 1)

	recent, err := repo.ListRecent(context.Background(), "v1", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	all, err := repo.ListPartition(context.Background(), "pid", "v1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkForPruning(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Unix(1700000000, 0)
	boundary, _ := new(big.Int).SetString("9007199254740993000", 10)

	mock.ExpectExec(`UPDATE stored_data SET deleted_at = \$1 WHERE partition_id = \$2 AND schema_version = \$3 AND deleted_at IS NULL AND shifted_timestamp < \$4::numeric`).
		WithArgs(now, "pid", "v1", "9007199254740993000").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.MarkForPruning(context.Background(), "pid", "v1", boundary, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestMarkForPruning_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE stored_data`).WillReturnError(errors.New("timeout"))
	_, err := repo.MarkForPruning(context.Background(), "pid", "v1", big.NewInt(1), time.Now())
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	mock.ExpectExec(`UPDATE stored_data`).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
	_, err = repo.MarkForPruning(context.Background(), "pid", "v1", big.NewInt(1), time.Now())
	assert.ErrorContains(t, err, "rows affected error")
}
