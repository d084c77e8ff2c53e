package proto

import "github.com/dmitrijs2005/whistles/internal/server/models"

// PartitionParams overrides the server's default partition key for one
// call. Absent fields fall back to the default.
type PartitionParams struct {
	Secret *string `json:"secret,omitempty"`
	Salt   *string `json:"salt,omitempty"`
	Shift  *int64  `json:"shift,omitempty"`
}

type HeartbeatRequest struct{}

type HeartbeatResponse struct {
	Status string `json:"status"`
	Time   int64  `json:"time"`
}

type SettingsRequest struct{}

type SettingsResponse struct {
	LookbackWindowDays int    `json:"lookbackWindow"`
	PruneIntervalDays  int    `json:"pruneInterval"`
	SchemaVersion      string `json:"schemaVersion"`
}

type IsPrePermissionlessRequest struct {
	Fid int64 `json:"fid"`
}

type IsPrePermissionlessResponse struct {
	IsPrePermissionless bool `json:"isPrePermissionless"`
}

type GetTimestampOfEarliestMessageRequest struct {
	Partition *PartitionParams `json:"partition,omitempty"`
}

type GetTimestampOfEarliestMessageResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type GetEncryptedDataRequest struct {
	Limit int `json:"limit,omitempty"`
}

type GetEncryptedDataResponse struct {
	Rows []models.EncryptedRow `json:"rows"`
}

type GetEnabledChannelsRequest struct{}

type GetEnabledChannelsResponse struct {
	Channels []models.EnabledChannel `json:"channels"`
}

type GetDecryptedDataRequest struct {
	MessageID string           `json:"messageId"`
	Partition *PartitionParams `json:"partition,omitempty"`
}

type MessageResponse struct {
	Message *models.ExternalData `json:"message"`
}

type GetDecryptedMessagesByFidRequest struct {
	Fid        int64            `json:"fid"`
	Limit      int              `json:"limit,omitempty"`
	Descending bool             `json:"descending,omitempty"`
	Cursor     string           `json:"cursor,omitempty"`
	Partition  *PartitionParams `json:"partition,omitempty"`
}

type GetDecryptedMessagesByFidResponse struct {
	Messages   []models.ExternalData `json:"messages"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

type GetDecryptedMessageByFidRequest struct {
	Fid         int64            `json:"fid"`
	EncodedText string           `json:"encodedText"`
	Partition   *PartitionParams `json:"partition,omitempty"`
}

type GetTextByCastHashRequest struct {
	CastHash  string           `json:"castHash"`
	ViewerFid int64            `json:"viewerFid"`
	Partition *PartitionParams `json:"partition,omitempty"`
}

type GetTextByCastHashResponse struct {
	Cast *models.RevealedCast `json:"cast"`
}

type UpdateDataRequest struct {
	Data models.ExternalData `json:"data"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type MarkMessagesForPruningRequest struct {
	Partition *PartitionParams `json:"partition,omitempty"`
}

type MarkMessagesForPruningResponse struct {
	Count int64 `json:"count"`
}

type EnableChannelRequest struct {
	ChannelID string `json:"channelId"`
	ParentURL string `json:"parentUrl"`
}

type DisableChannelRequest struct {
	ChannelID string `json:"channelId"`
}

type ExportPartitionRequest struct {
	Partition *PartitionParams `json:"partition,omitempty"`
}

type ExportPartitionResponse struct {
	Key string `json:"key"`
}

type ImportRecordsRequest struct {
	Records []*models.StoredRecord `json:"records"`
}

type ImportRecordsResponse struct {
	Imported int `json:"imported"`
}
