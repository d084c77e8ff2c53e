package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/whistles/internal/common"
	pb "github.com/dmitrijs2005/whistles/internal/proto"
	"github.com/dmitrijs2005/whistles/internal/server/auth"
	"github.com/dmitrijs2005/whistles/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const roleKey ctxKey = "role"

var (
	serviceOnly     = []string{auth.RoleService}
	clientOrService = []string{auth.RoleClient, auth.RoleService}
)

// methodRoles lists the roles allowed to call each protected method.
// Methods not listed are public.
var methodRoles = map[string][]string{
	pb.FullMethod(pb.MethodGetDecryptedData):          serviceOnly,
	pb.FullMethod(pb.MethodGetDecryptedMessagesByFid): serviceOnly,
	pb.FullMethod(pb.MethodGetDecryptedMessageByFid):  serviceOnly,
	pb.FullMethod(pb.MethodUpdateData):                serviceOnly,
	pb.FullMethod(pb.MethodMarkMessagesForPruning):    serviceOnly,
	pb.FullMethod(pb.MethodExportPartition):           serviceOnly,
	pb.FullMethod(pb.MethodImportRecords):             serviceOnly,
	pb.FullMethod(pb.MethodGetTextByCastHash):         clientOrService,
	pb.FullMethod(pb.MethodEnableChannel):             clientOrService,
	pb.FullMethod(pb.MethodDisableChannel):            clientOrService,
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	token, found := strings.CutPrefix(values[0], common.BearerPrefix)
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func allowed(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	roles, protected := methodRoles[info.FullMethod]
	if !protected {
		return handler(ctx, req)
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, s.fail(ctx, info.FullMethod, common.ErrUnauthorized)
	}

	role, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, s.fail(ctx, info.FullMethod, err)
	}
	if !allowed(role, roles) {
		return nil, s.fail(ctx, info.FullMethod, common.ErrUnauthorized)
	}

	return handler(context.WithValue(ctx, roleKey, role), req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := s.now()
	resp, err := handler(ctx, req)

	metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	metrics.GRPCRequestDurationSeconds.WithLabelValues(info.FullMethod).Observe(s.now().Sub(start).Seconds())

	return resp, err
}
