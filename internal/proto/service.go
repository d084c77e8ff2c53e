package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "whistles.v1.WhistlesService"

const (
	MethodHeartbeat                     = "Heartbeat"
	MethodSettings                      = "Settings"
	MethodIsPrePermissionless           = "IsPrePermissionless"
	MethodGetTimestampOfEarliestMessage = "GetTimestampOfEarliestMessage"
	MethodGetEncryptedData              = "GetEncryptedData"
	MethodGetEnabledChannels            = "GetEnabledChannels"
	MethodGetDecryptedData              = "GetDecryptedData"
	MethodGetDecryptedMessagesByFid     = "GetDecryptedMessagesByFid"
	MethodGetDecryptedMessageByFid      = "GetDecryptedMessageByFid"
	MethodGetTextByCastHash             = "GetTextByCastHash"
	MethodUpdateData                    = "UpdateData"
	MethodMarkMessagesForPruning        = "MarkMessagesForPruning"
	MethodEnableChannel                 = "EnableChannel"
	MethodDisableChannel                = "DisableChannel"
	MethodExportPartition               = "ExportPartition"
	MethodImportRecords                 = "ImportRecords"
)

// FullMethod returns the path gRPC uses for method, e.g.
// "/whistles.v1.WhistlesService/Heartbeat".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type WhistlesServiceServer interface {
	Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error)
	Settings(context.Context, *SettingsRequest) (*SettingsResponse, error)
	IsPrePermissionless(context.Context, *IsPrePermissionlessRequest) (*IsPrePermissionlessResponse, error)
	GetTimestampOfEarliestMessage(context.Context, *GetTimestampOfEarliestMessageRequest) (*GetTimestampOfEarliestMessageResponse, error)
	GetEncryptedData(context.Context, *GetEncryptedDataRequest) (*GetEncryptedDataResponse, error)
	GetEnabledChannels(context.Context, *GetEnabledChannelsRequest) (*GetEnabledChannelsResponse, error)
	GetDecryptedData(context.Context, *GetDecryptedDataRequest) (*MessageResponse, error)
	GetDecryptedMessagesByFid(context.Context, *GetDecryptedMessagesByFidRequest) (*GetDecryptedMessagesByFidResponse, error)
	GetDecryptedMessageByFid(context.Context, *GetDecryptedMessageByFidRequest) (*MessageResponse, error)
	GetTextByCastHash(context.Context, *GetTextByCastHashRequest) (*GetTextByCastHashResponse, error)
	UpdateData(context.Context, *UpdateDataRequest) (*SuccessResponse, error)
	MarkMessagesForPruning(context.Context, *MarkMessagesForPruningRequest) (*MarkMessagesForPruningResponse, error)
	EnableChannel(context.Context, *EnableChannelRequest) (*SuccessResponse, error)
	DisableChannel(context.Context, *DisableChannelRequest) (*SuccessResponse, error)
	ExportPartition(context.Context, *ExportPartitionRequest) (*ExportPartitionResponse, error)
	ImportRecords(context.Context, *ImportRecordsRequest) (*ImportRecordsResponse, error)
}

// UnimplementedWhistlesServiceServer answers every method with
// codes.Unimplemented. Embed it to stay compatible as methods are added.
type UnimplementedWhistlesServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedWhistlesServiceServer) Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error) {
	return nil, unimplemented(MethodHeartbeat)
}
func (UnimplementedWhistlesServiceServer) Settings(context.Context, *SettingsRequest) (*SettingsResponse, error) {
	return nil, unimplemented(MethodSettings)
}
func (UnimplementedWhistlesServiceServer) IsPrePermissionless(context.Context, *IsPrePermissionlessRequest) (*IsPrePermissionlessResponse, error) {
	return nil, unimplemented(MethodIsPrePermissionless)
}
func (UnimplementedWhistlesServiceServer) GetTimestampOfEarliestMessage(context.Context, *GetTimestampOfEarliestMessageRequest) (*GetTimestampOfEarliestMessageResponse, error) {
	return nil, unimplemented(MethodGetTimestampOfEarliestMessage)
}
func (UnimplementedWhistlesServiceServer) GetEncryptedData(context.Context, *GetEncryptedDataRequest) (*GetEncryptedDataResponse, error) {
	return nil, unimplemented(MethodGetEncryptedData)
}
func (UnimplementedWhistlesServiceServer) GetEnabledChannels(context.Context, *GetEnabledChannelsRequest) (*GetEnabledChannelsResponse, error) {
	return nil, unimplemented(MethodGetEnabledChannels)
}
func (UnimplementedWhistlesServiceServer) GetDecryptedData(context.Context, *GetDecryptedDataRequest) (*MessageResponse, error) {
	return nil, unimplemented(MethodGetDecryptedData)
}
func (UnimplementedWhistlesServiceServer) GetDecryptedMessagesByFid(context.Context, *GetDecryptedMessagesByFidRequest) (*GetDecryptedMessagesByFidResponse, error) {
	return nil, unimplemented(MethodGetDecryptedMessagesByFid)
}
func (UnimplementedWhistlesServiceServer) GetDecryptedMessageByFid(context.Context, *GetDecryptedMessageByFidRequest) (*MessageResponse, error) {
	return nil, unimplemented(MethodGetDecryptedMessageByFid)
}
func (UnimplementedWhistlesServiceServer) GetTextByCastHash(context.Context, *GetTextByCastHashRequest) (*GetTextByCastHashResponse, error) {
	return nil, unimplemented(MethodGetTextByCastHash)
}
func (UnimplementedWhistlesServiceServer) UpdateData(context.Context, *UpdateDataRequest) (*SuccessResponse, error) {
	return nil, unimplemented(MethodUpdateData)
}
func (UnimplementedWhistlesServiceServer) MarkMessagesForPruning(context.Context, *MarkMessagesForPruningRequest) (*MarkMessagesForPruningResponse, error) {
	return nil, unimplemented(MethodMarkMessagesForPruning)
}
func (UnimplementedWhistlesServiceServer) EnableChannel(context.Context, *EnableChannelRequest) (*SuccessResponse, error) {
	return nil, unimplemented(MethodEnableChannel)
}
func (UnimplementedWhistlesServiceServer) DisableChannel(context.Context, *DisableChannelRequest) (*SuccessResponse, error) {
	return nil, unimplemented(MethodDisableChannel)
}
func (UnimplementedWhistlesServiceServer) ExportPartition(context.Context, *ExportPartitionRequest) (*ExportPartitionResponse, error) {
	return nil, unimplemented(MethodExportPartition)
}
func (UnimplementedWhistlesServiceServer) ImportRecords(context.Context, *ImportRecordsRequest) (*ImportRecordsResponse, error) {
	return nil, unimplemented(MethodImportRecords)
}

// unary adapts a typed server method to grpc.MethodDesc, running the
// server's interceptor chain when one is installed.
func unary[Req, Resp any](method string, call func(WhistlesServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WhistlesServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WhistlesServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var WhistlesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WhistlesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodHeartbeat, WhistlesServiceServer.Heartbeat),
		unary(MethodSettings, WhistlesServiceServer.Settings),
		unary(MethodIsPrePermissionless, WhistlesServiceServer.IsPrePermissionless),
		unary(MethodGetTimestampOfEarliestMessage, WhistlesServiceServer.GetTimestampOfEarliestMessage),
		unary(MethodGetEncryptedData, WhistlesServiceServer.GetEncryptedData),
		unary(MethodGetEnabledChannels, WhistlesServiceServer.GetEnabledChannels),
		unary(MethodGetDecryptedData, WhistlesServiceServer.GetDecryptedData),
		unary(MethodGetDecryptedMessagesByFid, WhistlesServiceServer.GetDecryptedMessagesByFid),
		unary(MethodGetDecryptedMessageByFid, WhistlesServiceServer.GetDecryptedMessageByFid),
		unary(MethodGetTextByCastHash, WhistlesServiceServer.GetTextByCastHash),
		unary(MethodUpdateData, WhistlesServiceServer.UpdateData),
		unary(MethodMarkMessagesForPruning, WhistlesServiceServer.MarkMessagesForPruning),
		unary(MethodEnableChannel, WhistlesServiceServer.EnableChannel),
		unary(MethodDisableChannel, WhistlesServiceServer.DisableChannel),
		unary(MethodExportPartition, WhistlesServiceServer.ExportPartition),
		unary(MethodImportRecords, WhistlesServiceServer.ImportRecords),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "whistles/v1/whistles.json",
}

func RegisterWhistlesServiceServer(s grpc.ServiceRegistrar, srv WhistlesServiceServer) {
	s.RegisterService(&WhistlesServiceDesc, srv)
}
