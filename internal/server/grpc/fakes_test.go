package grpc

import (
	"context"

	"github.com/dmitrijs2005/whistles/internal/partition"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/dmitrijs2005/whistles/internal/server/services"
)

type fakeMessages struct {
	MessageService

	updated     []models.ExternalData
	updateErr   error
	pruneCount  int64
	pruneErr    error
	message     *models.ExternalData
	messageErr  error
	page        *models.MessagePage
	pageErr     error
	cast        *models.RevealedCast
	castErr     error
	earliest    int64
	earliestErr error
	rows        []models.EncryptedRow
	exportKey   string
	imported    int

	lastPage     services.PageRequest
	lastOverride *partition.Override
	lastViewer   int64
	lastLimit    int
}

func (f *fakeMessages) UpdateData(ctx context.Context, ext models.ExternalData) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, ext)
	return nil
}

func (f *fakeMessages) MarkMessagesForPruning(ctx context.Context, o *partition.Override) (int64, error) {
	f.lastOverride = o
	return f.pruneCount, f.pruneErr
}

func (f *fakeMessages) GetDecryptedData(ctx context.Context, messageID string, o *partition.Override) (*models.ExternalData, error) {
	f.lastOverride = o
	return f.message, f.messageErr
}

func (f *fakeMessages) GetDecryptedMessagesByFid(ctx context.Context, req services.PageRequest, o *partition.Override) (*models.MessagePage, error) {
	f.lastPage = req
	f.lastOverride = o
	return f.page, f.pageErr
}

func (f *fakeMessages) GetDecryptedMessageByFid(ctx context.Context, fid int64, encodedText string, o *partition.Override) (*models.ExternalData, error) {
	f.lastOverride = o
	return f.message, f.messageErr
}

func (f *fakeMessages) GetTextByCastHash(ctx context.Context, castHash string, viewerFid int64, o *partition.Override) (*models.RevealedCast, error) {
	f.lastViewer = viewerFid
	f.lastOverride = o
	return f.cast, f.castErr
}

func (f *fakeMessages) GetTimestampOfEarliestMessage(ctx context.Context, o *partition.Override) (int64, error) {
	return f.earliest, f.earliestErr
}

func (f *fakeMessages) GetEncryptedData(ctx context.Context, limit int) ([]models.EncryptedRow, error) {
	f.lastLimit = limit
	return f.rows, nil
}

func (f *fakeMessages) ImportRecords(ctx context.Context, recs []*models.StoredRecord) (int, error) {
	return f.imported, nil
}

func (f *fakeMessages) ExportPartition(ctx context.Context, o *partition.Override) (string, error) {
	return f.exportKey, nil
}

type fakeChannels struct {
	ChannelAdmin

	enabled map[string]string
	err     error
}

func (f *fakeChannels) EnableChannel(ctx context.Context, channelID, parentURL string) error {
	if f.err != nil {
		return f.err
	}
	if f.enabled == nil {
		f.enabled = map[string]string{}
	}
	f.enabled[channelID] = parentURL
	return nil
}

func (f *fakeChannels) DisableChannel(ctx context.Context, channelID string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.enabled, channelID)
	return nil
}

func (f *fakeChannels) ListEnabledChannels(ctx context.Context) ([]models.EnabledChannel, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.EnabledChannel
	for id, url := range f.enabled {
		out = append(out, models.EnabledChannel{ChannelID: id, ParentURL: url})
	}
	return out, nil
}
