package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/partition"
	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/dmitrijs2005/whistles/internal/server/services"
	"google.golang.org/grpc"
)

// MessageService is the storage and reveal logic behind the API.
type MessageService interface {
	UpdateData(ctx context.Context, ext models.ExternalData) error
	MarkMessagesForPruning(ctx context.Context, o *partition.Override) (int64, error)
	GetDecryptedData(ctx context.Context, messageID string, o *partition.Override) (*models.ExternalData, error)
	GetDecryptedMessagesByFid(ctx context.Context, req services.PageRequest, o *partition.Override) (*models.MessagePage, error)
	GetDecryptedMessageByFid(ctx context.Context, fid int64, encodedText string, o *partition.Override) (*models.ExternalData, error)
	GetTextByCastHash(ctx context.Context, castHash string, viewerFid int64, o *partition.Override) (*models.RevealedCast, error)
	GetTimestampOfEarliestMessage(ctx context.Context, o *partition.Override) (int64, error)
	GetEncryptedData(ctx context.Context, limit int) ([]models.EncryptedRow, error)
	ImportRecords(ctx context.Context, recs []*models.StoredRecord) (int, error)
	ExportPartition(ctx context.Context, o *partition.Override) (string, error)
}

// ChannelAdmin manages the channels that opted in to gated reveals.
type ChannelAdmin interface {
	EnableChannel(ctx context.Context, channelID, parentURL string) error
	DisableChannel(ctx context.Context, channelID string) error
	ListEnabledChannels(ctx context.Context) ([]models.EnabledChannel, error)
}

type GRPCServer struct {
	pb.UnimplementedWhistlesServiceServer
	address   string
	messages  MessageService
	channels  ChannelAdmin
	config    *config.Config
	logger    logging.Logger
	jwtSecret []byte
	now       func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, ms MessageService, ch ChannelAdmin, cfg *config.Config) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		messages:  ms,
		channels:  ch,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		now:       time.Now,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	pb.RegisterWhistlesServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
