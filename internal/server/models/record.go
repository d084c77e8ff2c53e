// Package models holds the data types exchanged between the service layer,
// repositories and transports.
package models

import "time"

// ExternalData is a plaintext message as supplied by a producer. It is
// consumed once by the transformer and never persisted as-is.
type ExternalData struct {
	Fid         int64  `json:"fid" validate:"required,gt=0"`
	Timestamp   string `json:"timestamp" validate:"required,numeric"`
	MessageHash string `json:"messageHash" validate:"required"`
	Text        string `json:"text,omitempty" validate:"omitempty"`
	HashedText  string `json:"hashedText,omitempty" validate:"omitempty,hexadecimal"`
}

// SealedMessage is the JSON document encrypted into the envelope. Field order
// is part of the stored format.
type SealedMessage struct {
	MessageHash string `json:"messageHash"`
	Fid         int64  `json:"fid"`
	Timestamp   string `json:"timestamp"`
	Text        string `json:"text"`
}

// StoredRecord is one row of stored_data. ID is the surrogate key used to
// break shifted-timestamp ties when paging; it is local to one database and
// is not exported in snapshots.
type StoredRecord struct {
	ID                 int64      `json:"-"`
	ObscuredMessageID  string     `json:"obscured_message_id"`
	SaltedHashedFid    string     `json:"salted_hashed_fid"`
	ShiftedTimestamp   string     `json:"shifted_timestamp"`
	EncryptedMessage   string     `json:"encrypted_message"`
	ObscuredHashedText string     `json:"obscured_hashed_text"`
	PartitionID        string     `json:"partition_id"`
	SchemaVersion      string     `json:"schema_version"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// EncryptedRow is the raw listing shape exposed to operators: nothing in it
// is readable without the secret.
type EncryptedRow struct {
	PartitionID string `json:"partitionId"`
	MessageID   string `json:"messageId"`
	Who         string `json:"who"`
	When        string `json:"when"`
	What        string `json:"what"`
	How         string `json:"how"`
}

// MessagePage is one page of a fid's decrypted history. NextCursor is empty
// when there are no further rows.
type MessagePage struct {
	Messages   []ExternalData `json:"messages"`
	NextCursor string         `json:"nextCursor,omitempty"`
}
