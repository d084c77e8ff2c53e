package grpc

import (
	"context"

	"github.com/dmitrijs2005/whistles/internal/partition"
	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/dmitrijs2005/whistles/internal/server/services"
)

func override(p *pb.PartitionParams) *partition.Override {
	if p == nil {
		return nil
	}
	return &partition.Override{Secret: p.Secret, Salt: p.Salt, Shift: p.Shift}
}

func (s *GRPCServer) Heartbeat(ctx context.Context, req *pb.HeartbeatRequest) (*pb.HeartbeatResponse, error) {
	return &pb.HeartbeatResponse{Status: "OK", Time: s.now().Unix()}, nil
}

func (s *GRPCServer) Settings(ctx context.Context, req *pb.SettingsRequest) (*pb.SettingsResponse, error) {
	return &pb.SettingsResponse{
		LookbackWindowDays: s.config.LookbackWindowDays,
		PruneIntervalDays:  s.config.PruneIntervalDays,
		SchemaVersion:      s.config.SchemaVersion,
	}, nil
}

func (s *GRPCServer) IsPrePermissionless(ctx context.Context, req *pb.IsPrePermissionlessRequest) (*pb.IsPrePermissionlessResponse, error) {
	return &pb.IsPrePermissionlessResponse{IsPrePermissionless: services.IsPrePermissionless(req.Fid)}, nil
}

func (s *GRPCServer) GetTimestampOfEarliestMessage(ctx context.Context, req *pb.GetTimestampOfEarliestMessageRequest) (*pb.GetTimestampOfEarliestMessageResponse, error) {
	ts, err := s.messages.GetTimestampOfEarliestMessage(ctx, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetTimestampOfEarliestMessage, err)
	}
	return &pb.GetTimestampOfEarliestMessageResponse{Timestamp: ts}, nil
}

func (s *GRPCServer) GetEncryptedData(ctx context.Context, req *pb.GetEncryptedDataRequest) (*pb.GetEncryptedDataResponse, error) {
	rows, err := s.messages.GetEncryptedData(ctx, req.Limit)
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetEncryptedData, err)
	}
	return &pb.GetEncryptedDataResponse{Rows: rows}, nil
}

func (s *GRPCServer) GetEnabledChannels(ctx context.Context, req *pb.GetEnabledChannelsRequest) (*pb.GetEnabledChannelsResponse, error) {
	channels, err := s.channels.ListEnabledChannels(ctx)
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetEnabledChannels, err)
	}
	if channels == nil {
		channels = []models.EnabledChannel{}
	}
	return &pb.GetEnabledChannelsResponse{Channels: channels}, nil
}

func (s *GRPCServer) GetDecryptedData(ctx context.Context, req *pb.GetDecryptedDataRequest) (*pb.MessageResponse, error) {
	msg, err := s.messages.GetDecryptedData(ctx, req.MessageID, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetDecryptedData, err)
	}
	return &pb.MessageResponse{Message: msg}, nil
}

func (s *GRPCServer) GetDecryptedMessagesByFid(ctx context.Context, req *pb.GetDecryptedMessagesByFidRequest) (*pb.GetDecryptedMessagesByFidResponse, error) {
	page, err := s.messages.GetDecryptedMessagesByFid(ctx, services.PageRequest{
		Fid:       req.Fid,
		Limit:     req.Limit,
		Ascending: !req.Descending,
		Cursor:    req.Cursor,
	}, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetDecryptedMessagesByFid, err)
	}
	return &pb.GetDecryptedMessagesByFidResponse{Messages: page.Messages, NextCursor: page.NextCursor}, nil
}

func (s *GRPCServer) GetDecryptedMessageByFid(ctx context.Context, req *pb.GetDecryptedMessageByFidRequest) (*pb.MessageResponse, error) {
	msg, err := s.messages.GetDecryptedMessageByFid(ctx, req.Fid, req.EncodedText, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetDecryptedMessageByFid, err)
	}
	return &pb.MessageResponse{Message: msg}, nil
}

func (s *GRPCServer) GetTextByCastHash(ctx context.Context, req *pb.GetTextByCastHashRequest) (*pb.GetTextByCastHashResponse, error) {
	cast, err := s.messages.GetTextByCastHash(ctx, req.CastHash, req.ViewerFid, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodGetTextByCastHash, err)
	}
	return &pb.GetTextByCastHashResponse{Cast: cast}, nil
}

func (s *GRPCServer) UpdateData(ctx context.Context, req *pb.UpdateDataRequest) (*pb.SuccessResponse, error) {
	if err := s.messages.UpdateData(ctx, req.Data); err != nil {
		return nil, s.fail(ctx, pb.MethodUpdateData, err)
	}
	return &pb.SuccessResponse{Success: true}, nil
}

func (s *GRPCServer) MarkMessagesForPruning(ctx context.Context, req *pb.MarkMessagesForPruningRequest) (*pb.MarkMessagesForPruningResponse, error) {
	n, err := s.messages.MarkMessagesForPruning(ctx, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodMarkMessagesForPruning, err)
	}
	return &pb.MarkMessagesForPruningResponse{Count: n}, nil
}

func (s *GRPCServer) EnableChannel(ctx context.Context, req *pb.EnableChannelRequest) (*pb.SuccessResponse, error) {
	if err := s.channels.EnableChannel(ctx, req.ChannelID, req.ParentURL); err != nil {
		return nil, s.fail(ctx, pb.MethodEnableChannel, err)
	}
	s.logger.Info(ctx, "channel enabled", "channel_id", req.ChannelID)
	return &pb.SuccessResponse{Success: true}, nil
}

func (s *GRPCServer) DisableChannel(ctx context.Context, req *pb.DisableChannelRequest) (*pb.SuccessResponse, error) {
	if err := s.channels.DisableChannel(ctx, req.ChannelID); err != nil {
		return nil, s.fail(ctx, pb.MethodDisableChannel, err)
	}
	s.logger.Info(ctx, "channel disabled", "channel_id", req.ChannelID)
	return &pb.SuccessResponse{Success: true}, nil
}

func (s *GRPCServer) ExportPartition(ctx context.Context, req *pb.ExportPartitionRequest) (*pb.ExportPartitionResponse, error) {
	key, err := s.messages.ExportPartition(ctx, override(req.Partition))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodExportPartition, err)
	}
	return &pb.ExportPartitionResponse{Key: key}, nil
}

func (s *GRPCServer) ImportRecords(ctx context.Context, req *pb.ImportRecordsRequest) (*pb.ImportRecordsResponse, error) {
	n, err := s.messages.ImportRecords(ctx, req.Records)
	if err != nil {
		return nil, s.fail(ctx, pb.MethodImportRecords, err)
	}
	return &pb.ImportRecordsResponse{Imported: n}, nil
}
