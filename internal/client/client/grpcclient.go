package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// importBatchSize bounds the number of records sent in one ImportRecords call.
const importBatchSize = 500

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.WhistlesServiceClient
	token       string
}

func withBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) bearerInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withBearer(ctx, s.token), method, req, reply, cc, opts...)
}

func NewWhistlesClient(endpointURL, token string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, token: token}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.bearerInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewWhistlesServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return common.ErrDecryption
	case codes.NotFound:
		return common.ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (s *GRPCClient) Heartbeat(ctx context.Context) (time.Time, error) {
	resp, err := s.client.Heartbeat(ctx, &pb.HeartbeatRequest{})
	if err != nil {
		return time.Time{}, s.mapError(err)
	}
	return time.Unix(resp.Time, 0), nil
}

func (s *GRPCClient) Settings(ctx context.Context) (*pb.SettingsResponse, error) {
	resp, err := s.client.Settings(ctx, &pb.SettingsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) IsPrePermissionless(ctx context.Context, fid int64) (bool, error) {
	resp, err := s.client.IsPrePermissionless(ctx, &pb.IsPrePermissionlessRequest{Fid: fid})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.IsPrePermissionless, nil
}

func (s *GRPCClient) EarliestTimestamp(ctx context.Context, p *pb.PartitionParams) (int64, error) {
	resp, err := s.client.GetTimestampOfEarliestMessage(ctx, &pb.GetTimestampOfEarliestMessageRequest{Partition: p})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Timestamp, nil
}

func (s *GRPCClient) Put(ctx context.Context, data models.ExternalData) error {
	_, err := s.client.UpdateData(ctx, &pb.UpdateDataRequest{Data: data})
	return s.mapError(err)
}

func (s *GRPCClient) List(ctx context.Context, req ListRequest, p *pb.PartitionParams) (*models.MessagePage, error) {
	resp, err := s.client.GetDecryptedMessagesByFid(ctx, &pb.GetDecryptedMessagesByFidRequest{
		Fid:        req.Fid,
		Limit:      req.Limit,
		Descending: req.Descending,
		Cursor:     req.Cursor,
		Partition:  p,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &models.MessagePage{Messages: resp.Messages, NextCursor: resp.NextCursor}, nil
}

func (s *GRPCClient) Get(ctx context.Context, messageID string, p *pb.PartitionParams) (*models.ExternalData, error) {
	resp, err := s.client.GetDecryptedData(ctx, &pb.GetDecryptedDataRequest{MessageID: messageID, Partition: p})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) Find(ctx context.Context, fid int64, hashedText string, p *pb.PartitionParams) (*models.ExternalData, error) {
	resp, err := s.client.GetDecryptedMessageByFid(ctx, &pb.GetDecryptedMessageByFidRequest{Fid: fid, EncodedText: hashedText, Partition: p})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) Reveal(ctx context.Context, castHash string, viewerFid int64, p *pb.PartitionParams) (*models.RevealedCast, error) {
	resp, err := s.client.GetTextByCastHash(ctx, &pb.GetTextByCastHashRequest{CastHash: castHash, ViewerFid: viewerFid, Partition: p})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Cast, nil
}

func (s *GRPCClient) Prune(ctx context.Context, p *pb.PartitionParams) (int64, error) {
	resp, err := s.client.MarkMessagesForPruning(ctx, &pb.MarkMessagesForPruningRequest{Partition: p})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Count, nil
}

func (s *GRPCClient) Channels(ctx context.Context) ([]models.EnabledChannel, error) {
	resp, err := s.client.GetEnabledChannels(ctx, &pb.GetEnabledChannelsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Channels, nil
}

func (s *GRPCClient) EnableChannel(ctx context.Context, channelID, parentURL string) error {
	_, err := s.client.EnableChannel(ctx, &pb.EnableChannelRequest{ChannelID: channelID, ParentURL: parentURL})
	return s.mapError(err)
}

func (s *GRPCClient) DisableChannel(ctx context.Context, channelID string) error {
	_, err := s.client.DisableChannel(ctx, &pb.DisableChannelRequest{ChannelID: channelID})
	return s.mapError(err)
}

func (s *GRPCClient) Export(ctx context.Context, p *pb.PartitionParams) (string, error) {
	resp, err := s.client.ExportPartition(ctx, &pb.ExportPartitionRequest{Partition: p})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Key, nil
}

// Import sends recs in batches and returns how many the server accepted.
// On error the count covers the batches that already went through.
func (s *GRPCClient) Import(ctx context.Context, recs []*models.StoredRecord) (int, error) {
	total := 0
	for start := 0; start < len(recs); start += importBatchSize {
		end := min(start+importBatchSize, len(recs))
		resp, err := s.client.ImportRecords(ctx, &pb.ImportRecordsRequest{Records: recs[start:end]})
		if err != nil {
			return total, s.mapError(err)
		}
		total += resp.Imported
	}
	return total, nil
}
