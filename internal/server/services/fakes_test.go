package services

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/dbx"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/records"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/repomanager"
)

// memRepo is an in-memory records.Repository with the same uniqueness and
// soft-delete rules as the Postgres table.
type memRepo struct {
	records.Repository

	mu        sync.Mutex
	rows      []*models.StoredRecord
	nextID    int64
	upsertErr error
	failAfter int
}

func num(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

func live(r *models.StoredRecord, schema string) bool {
	return r.DeletedAt == nil && r.SchemaVersion == schema
}

func clone(r *models.StoredRecord) *models.StoredRecord {
	c := *r
	return &c
}

func (m *memRepo) Upsert(_ context.Context, rec *models.StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		if m.failAfter <= 0 {
			return m.upsertErr
		}
		m.failAfter--
	}

	for _, r := range m.rows {
		if r.PartitionID == rec.PartitionID && r.SchemaVersion == rec.SchemaVersion && r.ObscuredMessageID == rec.ObscuredMessageID {
			r.SaltedHashedFid = rec.SaltedHashedFid
			r.ShiftedTimestamp = rec.ShiftedTimestamp
			r.EncryptedMessage = rec.EncryptedMessage
			r.ObscuredHashedText = rec.ObscuredHashedText
			return nil
		}
	}
	m.nextID++
	c := clone(rec)
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	m.rows = append(m.rows, c)
	return nil
}

// add stores rec as is, assigning the next row id.
func (m *memRepo) add(rec *models.StoredRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	m.rows = append(m.rows, rec)
}

func (m *memRepo) GetByObscuredID(_ context.Context, id, partitionID, schema string) (*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *models.StoredRecord
	for _, r := range m.rows {
		if !live(r, schema) || r.ObscuredMessageID != id {
			continue
		}
		if r.PartitionID == partitionID {
			return clone(r), nil
		}
		if found == nil {
			found = r
		}
	}
	if found == nil {
		return nil, common.ErrNotFound
	}
	return clone(found), nil
}

// position orders rows by (shifted timestamp, id).
func position(r *models.StoredRecord, c *records.Cursor) int {
	if n := num(r.ShiftedTimestamp).Cmp(num(c.ShiftedTimestamp)); n != 0 {
		return n
	}
	switch {
	case r.ID < c.ID:
		return -1
	case r.ID > c.ID:
		return 1
	}
	return 0
}

func (m *memRepo) ListByFid(_ context.Context, q records.ListQuery) ([]*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.StoredRecord
	for _, r := range m.rows {
		if !live(r, q.SchemaVersion) || r.PartitionID != q.PartitionID || r.SaltedHashedFid != q.SaltedHashedFid {
			continue
		}
		if q.After != nil {
			c := position(r, q.After)
			if (q.Ascending && c <= 0) || (!q.Ascending && c >= 0) {
				continue
			}
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool {
		c := position(out[i], &records.Cursor{ShiftedTimestamp: out[j].ShiftedTimestamp, ID: out[j].ID})
		if q.Ascending {
			return c < 0
		}
		return c > 0
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memRepo) GetByHashedText(_ context.Context, partitionID, fid, text, schema string) (*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if live(r, schema) && r.PartitionID == partitionID && r.SaltedHashedFid == fid && r.ObscuredHashedText == text {
			return clone(r), nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memRepo) Earliest(_ context.Context, partitionID, schema string, limit int) ([]*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.StoredRecord
	for _, r := range m.rows {
		if live(r, schema) && r.PartitionID == partitionID && num(r.ShiftedTimestamp).Cmp(big.NewInt(1)) > 0 {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return position(out[i], &records.Cursor{ShiftedTimestamp: out[j].ShiftedTimestamp, ID: out[j].ID}) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ListRecent(_ context.Context, schema string, limit int) ([]*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.StoredRecord
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if live(m.rows[i], schema) {
			out = append(out, clone(m.rows[i]))
		}
	}
	return out, nil
}

func (m *memRepo) ListPartition(_ context.Context, partitionID, schema string) ([]*models.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.StoredRecord
	for _, r := range m.rows {
		if live(r, schema) && r.PartitionID == partitionID {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memRepo) MarkForPruning(_ context.Context, partitionID, schema string, boundary *big.Int, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.rows {
		if live(r, schema) && r.PartitionID == partitionID && num(r.ShiftedTimestamp).Cmp(boundary) < 0 {
			at := now
			r.DeletedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type fakeManager struct {
	repomanager.RepositoryManager
	repo  *memRepo
	bound []dbx.DBTX
}

func (f *fakeManager) Records(db dbx.DBTX) records.Repository {
	f.bound = append(f.bound, db)
	return f.repo
}

type fakeCasts struct {
	casts map[string]*models.Cast
	err   error
}

func (f *fakeCasts) CastByHash(_ context.Context, hash string) (*models.Cast, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.casts[hash]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}

type fakeEligibility struct {
	allowed map[int64]bool
	err     error
	calls   int
}

func (f *fakeEligibility) IsEligible(_ context.Context, _ *models.Cast, viewerFid int64) (bool, error) {
	f.calls++
	return f.allowed[viewerFid], f.err
}

type fakeExporter struct {
	partitionID string
	recs        []*models.StoredRecord
	err         error
}

func (f *fakeExporter) Export(_ context.Context, partitionID string, recs []*models.StoredRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.partitionID = partitionID
	f.recs = recs
	return "partitions/" + partitionID + "/snapshot.jsonl", nil
}
