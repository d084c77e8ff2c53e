// Package services contains server-side business logic. MessageService
// stores pseudonymous messages and reads them back for holders of the
// partition secret or for viewers the eligibility engine admits.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/cryptox"
	"github.com/dmitrijs2005/whistles/internal/dbx"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/partition"
	"github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/metrics"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/records"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/whistles/internal/storable"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	earliestScanLimit = 20

	// PermissionlessFidBound is the first fid registered after Farcaster
	// opened sign-ups.
	PermissionlessFidBound = 20939
)

// CastSource looks up casts on the network.
type CastSource interface {
	CastByHash(ctx context.Context, hash string) (*models.Cast, error)
}

type EligibilityChecker interface {
	IsEligible(ctx context.Context, cast *models.Cast, viewerFid int64) (bool, error)
}

// Exporter uploads a partition snapshot and returns where it was stored.
type Exporter interface {
	Export(ctx context.Context, partitionID string, recs []*models.StoredRecord) (string, error)
}

type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	transformer *storable.Transformer
	casts       CastSource
	eligibility EligibilityChecker
	exporter    Exporter
	logger      logging.Logger

	defaults          partition.Key
	schemaVersion     string
	pruneIntervalDays int

	now func() time.Time
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	casts CastSource, eligibility EligibilityChecker, exporter Exporter, l logging.Logger) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		transformer: storable.NewTransformer(l),
		casts:       casts,
		eligibility: eligibility,
		exporter:    exporter,
		logger:      l.With("module", "messages"),
		defaults: partition.Key{
			Secret: cfg.Secret,
			Salt:   cfg.Salt,
			Shift:  cfg.Shift,
		},
		schemaVersion:     cfg.SchemaVersion,
		pruneIntervalDays: cfg.PruneIntervalDays,
		now:               time.Now,
	}
}

func IsPrePermissionless(fid int64) bool {
	return fid < PermissionlessFidBound
}

func (s *MessageService) resolve(o *partition.Override) partition.Key {
	return partition.Resolve(o, s.defaults)
}

func (s *MessageService) open(ctx context.Context, rec *models.StoredRecord, secret string) (*models.ExternalData, error) {
	ext, err := storable.FromStorable(rec, secret)
	if err != nil {
		if errors.Is(err, common.ErrDecryption) {
			metrics.DecryptionFailuresTotal.Inc()
			s.logger.Warn(ctx, "record could not be decrypted", "partition_id", rec.PartitionID)
		}
		return nil, err
	}
	return ext, nil
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageLimit
	case limit > MaxPageLimit:
		return MaxPageLimit
	}
	return limit
}

// UpdateData encrypts ext under the default partition key and upserts it.
func (s *MessageService) UpdateData(ctx context.Context, ext models.ExternalData) error {
	key := s.resolve(nil)

	rec, err := s.transformer.ToStorable(ctx, ext, key, s.schemaVersion)
	if err != nil {
		return err
	}

	if err := s.repomanager.Records(s.db).Upsert(ctx, rec); err != nil {
		return fmt.Errorf("error storing record: %w", err)
	}

	metrics.RecordsStoredTotal.Inc()
	s.logger.Info(ctx, "record stored", "partition_id", rec.PartitionID)
	return nil
}

// MarkMessagesForPruning soft-deletes every live record of the partition
// older than the prune interval. Running it twice changes nothing.
func (s *MessageService) MarkMessagesForPruning(ctx context.Context, o *partition.Override) (int64, error) {
	key := s.resolve(o)
	now := s.now()

	partitionID, boundary := storable.MarkForPruning(key, now, s.pruneIntervalDays)

	n, err := s.repomanager.Records(s.db).MarkForPruning(ctx, partitionID, s.schemaVersion, boundary, now)
	if err != nil {
		return 0, fmt.Errorf("error marking records for pruning: %w", err)
	}

	metrics.RecordsPrunedTotal.Add(float64(n))
	s.logger.Info(ctx, "records marked for pruning", "partition_id", partitionID, "count", n)
	return n, nil
}

// GetDecryptedData opens the record stored under messageID. The lookup is
// not scoped to a partition; only the right secret opens the envelope.
func (s *MessageService) GetDecryptedData(ctx context.Context, messageID string, o *partition.Override) (*models.ExternalData, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: messageId is required", common.ErrValidation)
	}
	key := s.resolve(o)

	rec, err := s.repomanager.Records(s.db).GetByObscuredID(ctx, cryptox.Hash(messageID, key.Salt), key.ID(), s.schemaVersion)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, rec, key.Secret)
}

type PageRequest struct {
	Fid       int64
	Limit     int
	Ascending bool
	Cursor    string
}

// EncodeCursor renders the position of rec as an opaque page cursor of the
// form "<shifted timestamp>:<row id>".
func EncodeCursor(rec *models.StoredRecord) string {
	return rec.ShiftedTimestamp + ":" + strconv.FormatInt(rec.ID, 10)
}

// ParseCursor reverses EncodeCursor. An empty string is no cursor.
func ParseCursor(s string) (*records.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	ts, id, ok := strings.Cut(s, ":")
	if !ok || !isDecimal(ts) {
		return nil, fmt.Errorf("%w: malformed cursor", common.ErrValidation)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: malformed cursor", common.ErrValidation)
	}
	return &records.Cursor{ShiftedTimestamp: ts, ID: n}, nil
}

// GetDecryptedMessagesByFid pages through a fid's live records ordered by
// shifted timestamp, ties broken by insertion order. NextCursor is set when
// more rows follow and is passed back unchanged to fetch the next page.
func (s *MessageService) GetDecryptedMessagesByFid(ctx context.Context, req PageRequest, o *partition.Override) (*models.MessagePage, error) {
	if req.Fid == 0 {
		return nil, fmt.Errorf("%w: fid is required", common.ErrValidation)
	}
	after, err := ParseCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	key := s.resolve(o)
	limit := pageLimit(req.Limit)

	rows, err := s.repomanager.Records(s.db).ListByFid(ctx, records.ListQuery{
		PartitionID:     key.ID(),
		SaltedHashedFid: storable.HashFid(req.Fid, key.Salt),
		SchemaVersion:   s.schemaVersion,
		Ascending:       req.Ascending,
		After:           after,
		Limit:           limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &models.MessagePage{Messages: make([]models.ExternalData, 0, min(len(rows), limit))}

	for i := 0; i < len(rows) && i < limit; i++ {
		ext, err := s.open(ctx, rows[i], key.Secret)
		if err != nil {
			return nil, err
		}
		ts, err := storable.UnshiftTimestamp(rows[i].ShiftedTimestamp, key.Shift)
		if err != nil {
			return nil, err
		}
		page.Messages = append(page.Messages, models.ExternalData{
			Fid:         req.Fid,
			Timestamp:   ts,
			MessageHash: ext.MessageHash,
			Text:        ext.Text,
		})
	}

	if len(rows) > limit {
		page.NextCursor = EncodeCursor(rows[limit-1])
	}
	return page, nil
}

func isDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GetDecryptedMessageByFid finds the fid's record whose hashed text is
// encodedText.
func (s *MessageService) GetDecryptedMessageByFid(ctx context.Context, fid int64, encodedText string, o *partition.Override) (*models.ExternalData, error) {
	if fid == 0 || encodedText == "" {
		return nil, fmt.Errorf("%w: fid and encodedText are required", common.ErrValidation)
	}
	key := s.resolve(o)

	rec, err := s.repomanager.Records(s.db).GetByHashedText(ctx,
		key.ID(), storable.HashFid(fid, key.Salt), cryptox.Hash(encodedText, key.Salt), s.schemaVersion)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, rec, key.Secret)
}

// GetTextByCastHash reveals the message behind a cast that carries a
// Keccak-256 text hash. The author always sees it; anyone else only when
// eligible. Otherwise the cast text is returned as published.
func (s *MessageService) GetTextByCastHash(ctx context.Context, castHash string, viewerFid int64, o *partition.Override) (*models.RevealedCast, error) {
	if castHash == "" {
		return nil, fmt.Errorf("%w: castHash is required", common.ErrValidation)
	}

	cast, err := s.casts.CastByHash(ctx, castHash)
	if err != nil {
		return nil, fmt.Errorf("error fetching cast: %w", err)
	}

	plain := &models.RevealedCast{
		CastHash:  cast.Hash,
		Fid:       cast.AuthorFid,
		Timestamp: cast.Timestamp,
		Text:      cast.Text,
	}

	textHash, ok := cryptox.FindKeccakHex(cast.Text)
	if !ok {
		return plain, nil
	}

	if cast.AuthorFid != viewerFid {
		eligible, err := s.eligibility.IsEligible(ctx, cast, viewerFid)
		if err != nil {
			return nil, err
		}
		if !eligible {
			return plain, nil
		}
	}

	key := s.resolve(o)

	rec, err := s.repomanager.Records(s.db).GetByHashedText(ctx,
		key.ID(), storable.HashFid(cast.AuthorFid, key.Salt), cryptox.Hash(textHash, key.Salt), s.schemaVersion)
	if err != nil {
		return nil, err
	}

	ext, err := s.open(ctx, rec, key.Secret)
	if err != nil {
		return nil, err
	}

	return &models.RevealedCast{
		CastHash:    cast.Hash,
		IsDecrypted: true,
		Fid:         cast.AuthorFid,
		Timestamp:   cast.Timestamp,
		Text:        strings.Replace(cast.Text, textHash, ext.Text, 1),
		DecodedText: ext.Text,
	}, nil
}

// GetTimestampOfEarliestMessage returns, as Unix seconds, the timestamp of
// the earliest record of the partition that the secret can open.
func (s *MessageService) GetTimestampOfEarliestMessage(ctx context.Context, o *partition.Override) (int64, error) {
	key := s.resolve(o)

	rows, err := s.repomanager.Records(s.db).Earliest(ctx, key.ID(), s.schemaVersion, earliestScanLimit)
	if err != nil {
		return 0, err
	}

	for _, rec := range rows {
		ext, err := s.open(ctx, rec, key.Secret)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(ext.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		return partition.ToUnix(ts), nil
	}

	return 0, fmt.Errorf("earliest message: %w", common.ErrNotFound)
}

// GetEncryptedData lists the most recent live records as stored.
func (s *MessageService) GetEncryptedData(ctx context.Context, limit int) ([]models.EncryptedRow, error) {
	rows, err := s.repomanager.Records(s.db).ListRecent(ctx, s.schemaVersion, pageLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]models.EncryptedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.EncryptedRow{
			PartitionID: r.PartitionID,
			MessageID:   r.ObscuredMessageID,
			Who:         r.SaltedHashedFid,
			When:        r.ShiftedTimestamp,
			What:        r.EncryptedMessage,
			How:         r.ObscuredHashedText,
		})
	}
	return out, nil
}

func checkImported(i int, r *models.StoredRecord) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: record %d is empty", common.ErrValidation, i)
	case r.ObscuredMessageID == "", r.PartitionID == "", r.SaltedHashedFid == "", r.EncryptedMessage == "":
		return fmt.Errorf("%w: record %d is missing identifiers", common.ErrValidation, i)
	case !isDecimal(r.ShiftedTimestamp):
		return fmt.Errorf("%w: record %d has a malformed shifted timestamp", common.ErrValidation, i)
	}
	return nil
}

// ImportRecords upserts already-transformed records, e.g. from a snapshot,
// in a single transaction. Records without a schema version get the
// current one.
func (s *MessageService) ImportRecords(ctx context.Context, recs []*models.StoredRecord) (int, error) {
	for i, r := range recs {
		if err := checkImported(i, r); err != nil {
			return 0, err
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		for _, r := range recs {
			rec := *r
			if rec.SchemaVersion == "" {
				rec.SchemaVersion = s.schemaVersion
			}
			if err := repo.Upsert(ctx, &rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error importing records: %w", err)
	}

	metrics.RecordsStoredTotal.Add(float64(len(recs)))
	s.logger.Info(ctx, "records imported", "count", len(recs))
	return len(recs), nil
}

// ExportPartition uploads the live records of a partition and returns the
// object key.
func (s *MessageService) ExportPartition(ctx context.Context, o *partition.Override) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("%w: export is not configured", common.ErrUpstreamUnavailable)
	}
	key := s.resolve(o)
	partitionID := key.ID()

	rows, err := s.repomanager.Records(s.db).ListPartition(ctx, partitionID, s.schemaVersion)
	if err != nil {
		return "", err
	}

	objectKey, err := s.exporter.Export(ctx, partitionID, rows)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "partition exported", "partition_id", partitionID, "count", len(rows), "key", objectKey)
	return objectKey, nil
}
