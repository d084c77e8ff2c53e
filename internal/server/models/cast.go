package models

import "time"

// Cast is the subset of a hub cast used for reveal and eligibility.
type Cast struct {
	Hash      string    `json:"hash"`
	AuthorFid int64     `json:"authorFid"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ChannelID string    `json:"channelId,omitempty"`
	ParentURL string    `json:"parentUrl,omitempty"`
}

// RevealedCast is returned by the reveal flow. DecodedText is set only when
// IsDecrypted is true.
type RevealedCast struct {
	CastHash    string    `json:"castHash"`
	IsDecrypted bool      `json:"isDecrypted"`
	Fid         int64     `json:"fid"`
	Timestamp   time.Time `json:"timestamp"`
	Text        string    `json:"text"`
	DecodedText string    `json:"decodedText,omitempty"`
}
