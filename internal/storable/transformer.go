// Package storable converts plaintext messages into pseudonymous, encrypted
// storage rows and back.
//
// Every derived column is a pure function of the input and the partition
// key, except the envelope, whose nonce is random. Re-storing the same
// message therefore lands on the same (partition, schema, obscured id) row.
package storable

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/cryptox"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/partition"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/go-playground/validator/v10"
)

type Transformer struct {
	validate *validator.Validate
	logger   logging.Logger
}

func NewTransformer(l logging.Logger) *Transformer {
	return &Transformer{
		validate: validator.New(),
		logger:   l.With("module", "storable"),
	}
}

// checkShape runs the struct-tag validation. A mismatch is reported but does
// not reject the record; the mandatory-field check decides that.
func (t *Transformer) checkShape(ctx context.Context, ext *models.ExternalData) {
	err := t.validate.Struct(ext)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		t.logger.Warn(ctx, "external data does not match schema", "fields", fields)
		return
	}
	t.logger.Warn(ctx, "external data validation failed", "error", err.Error())
}

func checkMandatory(ext *models.ExternalData) error {
	switch {
	case ext.Fid == 0:
		return fmt.Errorf("%w: fid is required", common.ErrValidation)
	case ext.Timestamp == "":
		return fmt.Errorf("%w: timestamp is required", common.ErrValidation)
	case ext.MessageHash == "":
		return fmt.Errorf("%w: messageHash is required", common.ErrValidation)
	case ext.Text == "":
		return fmt.Errorf("%w: text is required", common.ErrValidation)
	}
	return nil
}

// ShiftTimestamp subtracts shift from a base-10 timestamp using arbitrary
// precision, so values above 2^53 survive unchanged.
func ShiftTimestamp(ts string, shift int64) (string, error) {
	v, ok := new(big.Int).SetString(ts, 10)
	if !ok {
		return "", fmt.Errorf("%w: timestamp %q is not an integer", common.ErrValidation, ts)
	}
	return v.Sub(v, big.NewInt(shift)).String(), nil
}

// UnshiftTimestamp is the inverse of ShiftTimestamp.
func UnshiftTimestamp(shifted string, shift int64) (string, error) {
	v, ok := new(big.Int).SetString(shifted, 10)
	if !ok {
		return "", fmt.Errorf("%w: shifted timestamp %q is not an integer", common.ErrValidation, shifted)
	}
	return v.Add(v, big.NewInt(shift)).String(), nil
}

// ToStorable derives the stored row for ext under key. It returns an
// ErrValidation-wrapped error when a mandatory field is missing.
func (t *Transformer) ToStorable(ctx context.Context, ext models.ExternalData, key partition.Key, schemaVersion string) (*models.StoredRecord, error) {
	t.checkShape(ctx, &ext)

	if err := checkMandatory(&ext); err != nil {
		return nil, err
	}

	shifted, err := ShiftTimestamp(ext.Timestamp, key.Shift)
	if err != nil {
		return nil, err
	}

	envelope, err := cryptox.EncryptJSON(models.SealedMessage{
		MessageHash: ext.MessageHash,
		Fid:         ext.Fid,
		Timestamp:   ext.Timestamp,
		Text:        ext.Text,
	}, key.Secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	var obscuredHashedText string
	if ext.HashedText != "" {
		obscuredHashedText = cryptox.Hash(ext.HashedText, key.Salt)
	}

	return &models.StoredRecord{
		ObscuredMessageID:  cryptox.Hash(ext.MessageHash, key.Salt),
		SaltedHashedFid:    HashFid(ext.Fid, key.Salt),
		ShiftedTimestamp:   shifted,
		EncryptedMessage:   envelope,
		ObscuredHashedText: obscuredHashedText,
		PartitionID:        partition.DeriveID(key),
		SchemaVersion:      schemaVersion,
	}, nil
}

// FromStorable opens the envelope of rec. Values come from inside the
// envelope, not from the pseudonymous columns.
func FromStorable(rec *models.StoredRecord, secret string) (*models.ExternalData, error) {
	var msg models.SealedMessage
	if err := cryptox.DecryptJSON(rec.EncryptedMessage, secret, &msg); err != nil {
		return nil, err
	}
	return &models.ExternalData{
		Fid:         msg.Fid,
		Timestamp:   msg.Timestamp,
		MessageHash: msg.MessageHash,
		Text:        msg.Text,
	}, nil
}

// HashFid is the salted_hashed_fid column value for fid.
func HashFid(fid int64, salt string) string {
	return cryptox.Hash(strconv.FormatInt(fid, 10), salt)
}

// MarkForPruning returns the partition and shifted-timestamp boundary for a
// soft-delete sweep. Rows of that partition with shifted_timestamp below the
// boundary are past retention.
func MarkForPruning(key partition.Key, now time.Time, pruneIntervalDays int) (string, *big.Int) {
	return partition.DeriveID(key), partition.PruneBoundary(now, key.Shift, pruneIntervalDays)
}
