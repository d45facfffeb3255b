package grpc

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// protected lists the methods that need an access token.
var protected = map[string]bool{
	fullMethod("AddCourse"):          true,
	fullMethod("ChangeTakenStatus"):  true,
	fullMethod("ChangeDistribution"): true,
	fullMethod("DeleteCourse"):       true,
	fullMethod("ReconcileCourse"):    true,
}

// ClaimsFromContext returns the caller identity set by the interceptor.
func ClaimsFromContext(ctx context.Context) (*auth.UserClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.UserClaims)
	return c, ok
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protected[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := s.authn.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	ctx = logging.WithContext(ctx, "user_id", claims.UserID)
	return handler(context.WithValue(ctx, claimsKey, claims), req)
}
