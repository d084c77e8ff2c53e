package client

import (
	"context"
	"time"

	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

type ListRequest struct {
	Fid        int64
	Limit      int
	Descending bool
	Cursor     string
}

type Client interface {
	Close() error
	Heartbeat(ctx context.Context) (time.Time, error)
	Settings(ctx context.Context) (*pb.SettingsResponse, error)
	IsPrePermissionless(ctx context.Context, fid int64) (bool, error)
	EarliestTimestamp(ctx context.Context, p *pb.PartitionParams) (int64, error)
	Put(ctx context.Context, data models.ExternalData) error
	List(ctx context.Context, req ListRequest, p *pb.PartitionParams) (*models.MessagePage, error)
	Get(ctx context.Context, messageID string, p *pb.PartitionParams) (*models.ExternalData, error)
	Find(ctx context.Context, fid int64, hashedText string, p *pb.PartitionParams) (*models.ExternalData, error)
	Reveal(ctx context.Context, castHash string, viewerFid int64, p *pb.PartitionParams) (*models.RevealedCast, error)
	Prune(ctx context.Context, p *pb.PartitionParams) (int64, error)
	Channels(ctx context.Context) ([]models.EnabledChannel, error)
	EnableChannel(ctx context.Context, channelID, parentURL string) error
	DisableChannel(ctx context.Context, channelID string) error
	Export(ctx context.Context, p *pb.PartitionParams) (string, error)
	Import(ctx context.Context, recs []*models.StoredRecord) (int, error)
}
