package proto

import (
	"context"

	"google.golang.org/grpc"
)

type WhistlesServiceClient interface {
	Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error)
	Settings(ctx context.Context, in *SettingsRequest, opts ...grpc.CallOption) (*SettingsResponse, error)
	IsPrePermissionless(ctx context.Context, in *IsPrePermissionlessRequest, opts ...grpc.CallOption) (*IsPrePermissionlessResponse, error)
	GetTimestampOfEarliestMessage(ctx context.Context, in *GetTimestampOfEarliestMessageRequest, opts ...grpc.CallOption) (*GetTimestampOfEarliestMessageResponse, error)
	GetEncryptedData(ctx context.Context, in *GetEncryptedDataRequest, opts ...grpc.CallOption) (*GetEncryptedDataResponse, error)
	GetEnabledChannels(ctx context.Context, in *GetEnabledChannelsRequest, opts ...grpc.CallOption) (*GetEnabledChannelsResponse, error)
	GetDecryptedData(ctx context.Context, in *GetDecryptedDataRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	GetDecryptedMessagesByFid(ctx context.Context, in *GetDecryptedMessagesByFidRequest, opts ...grpc.CallOption) (*GetDecryptedMessagesByFidResponse, error)
	GetDecryptedMessageByFid(ctx context.Context, in *GetDecryptedMessageByFidRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	GetTextByCastHash(ctx context.Context, in *GetTextByCastHashRequest, opts ...grpc.CallOption) (*GetTextByCastHashResponse, error)
	UpdateData(ctx context.Context, in *UpdateDataRequest, opts ...grpc.CallOption) (*SuccessResponse, error)
	MarkMessagesForPruning(ctx context.Context, in *MarkMessagesForPruningRequest, opts ...grpc.CallOption) (*MarkMessagesForPruningResponse, error)
	EnableChannel(ctx context.Context, in *EnableChannelRequest, opts ...grpc.CallOption) (*SuccessResponse, error)
	DisableChannel(ctx context.Context, in *DisableChannelRequest, opts ...grpc.CallOption) (*SuccessResponse, error)
	ExportPartition(ctx context.Context, in *ExportPartitionRequest, opts ...grpc.CallOption) (*ExportPartitionResponse, error)
	ImportRecords(ctx context.Context, in *ImportRecordsRequest, opts ...grpc.CallOption) (*ImportRecordsResponse, error)
}

type whistlesServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWhistlesServiceClient returns a client that always sends the JSON
// content subtype, so no per-call codec option is needed.
func NewWhistlesServiceClient(cc grpc.ClientConnInterface) WhistlesServiceClient {
	return &whistlesServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *whistlesServiceClient) Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error) {
	return invoke[HeartbeatResponse](ctx, c.cc, MethodHeartbeat, in, opts)
}

func (c *whistlesServiceClient) Settings(ctx context.Context, in *SettingsRequest, opts ...grpc.CallOption) (*SettingsResponse, error) {
	return invoke[SettingsResponse](ctx, c.cc, MethodSettings, in, opts)
}

func (c *whistlesServiceClient) IsPrePermissionless(ctx context.Context, in *IsPrePermissionlessRequest, opts ...grpc.CallOption) (*IsPrePermissionlessResponse, error) {
	return invoke[IsPrePermissionlessResponse](ctx, c.cc, MethodIsPrePermissionless, in, opts)
}

func (c *whistlesServiceClient) GetTimestampOfEarliestMessage(ctx context.Context, in *GetTimestampOfEarliestMessageRequest, opts ...grpc.CallOption) (*GetTimestampOfEarliestMessageResponse, error) {
	return invoke[GetTimestampOfEarliestMessageResponse](ctx, c.cc, MethodGetTimestampOfEarliestMessage, in, opts)
}

func (c *whistlesServiceClient) GetEncryptedData(ctx context.Context, in *GetEncryptedDataRequest, opts ...grpc.CallOption) (*GetEncryptedDataResponse, error) {
	return invoke[GetEncryptedDataResponse](ctx, c.cc, MethodGetEncryptedData, in, opts)
}

func (c *whistlesServiceClient) GetEnabledChannels(ctx context.Context, in *GetEnabledChannelsRequest, opts ...grpc.CallOption) (*GetEnabledChannelsResponse, error) {
	return invoke[GetEnabledChannelsResponse](ctx, c.cc, MethodGetEnabledChannels, in, opts)
}

func (c *whistlesServiceClient) GetDecryptedData(ctx context.Context, in *GetDecryptedDataRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodGetDecryptedData, in, opts)
}

func (c *whistlesServiceClient) GetDecryptedMessagesByFid(ctx context.Context, in *GetDecryptedMessagesByFidRequest, opts ...grpc.CallOption) (*GetDecryptedMessagesByFidResponse, error) {
	return invoke[GetDecryptedMessagesByFidResponse](ctx, c.cc, MethodGetDecryptedMessagesByFid, in, opts)
}

func (c *whistlesServiceClient) GetDecryptedMessageByFid(ctx context.Context, in *GetDecryptedMessageByFidRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodGetDecryptedMessageByFid, in, opts)
}

func (c *whistlesServiceClient) GetTextByCastHash(ctx context.Context, in *GetTextByCastHashRequest, opts ...grpc.CallOption) (*GetTextByCastHashResponse, error) {
	return invoke[GetTextByCastHashResponse](ctx, c.cc, MethodGetTextByCastHash, in, opts)
}

func (c *whistlesServiceClient) UpdateData(ctx context.Context, in *UpdateDataRequest, opts ...grpc.CallOption) (*SuccessResponse, error) {
	return invoke[SuccessResponse](ctx, c.cc, MethodUpdateData, in, opts)
}

func (c *whistlesServiceClient) MarkMessagesForPruning(ctx context.Context, in *MarkMessagesForPruningRequest, opts ...grpc.CallOption) (*MarkMessagesForPruningResponse, error) {
	return invoke[MarkMessagesForPruningResponse](ctx, c.cc, MethodMarkMessagesForPruning, in, opts)
}

func (c *whistlesServiceClient) EnableChannel(ctx context.Context, in *EnableChannelRequest, opts ...grpc.CallOption) (*SuccessResponse, error) {
	return invoke[SuccessResponse](ctx, c.cc, MethodEnableChannel, in, opts)
}

func (c *whistlesServiceClient) DisableChannel(ctx context.Context, in *DisableChannelRequest, opts ...grpc.CallOption) (*SuccessResponse, error) {
	return invoke[SuccessResponse](ctx, c.cc, MethodDisableChannel, in, opts)
}

func (c *whistlesServiceClient) ExportPartition(ctx context.Context, in *ExportPartitionRequest, opts ...grpc.CallOption) (*ExportPartitionResponse, error) {
	return invoke[ExportPartitionResponse](ctx, c.cc, MethodExportPartition, in, opts)
}

func (c *whistlesServiceClient) ImportRecords(ctx context.Context, in *ImportRecordsRequest, opts ...grpc.CallOption) (*ImportRecordsResponse, error) {
	return invoke[ImportRecordsResponse](ctx, c.cc, MethodImportRecords, in, opts)
}
