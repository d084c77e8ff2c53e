package models

import "time"

type Channel struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Name          string `json:"name,omitempty"`
	PublicCasting bool   `json:"publicCasting"`
}

type ChannelMember struct {
	Fid         int64     `json:"fid"`
	MemberSince time.Time `json:"memberSince"`
}

// EnabledChannel is a channel that opted in to gated decryption.
type EnabledChannel struct {
	ChannelID string `json:"channelId"`
	ParentURL string `json:"parentUrl"`
}
