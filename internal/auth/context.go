package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// MerchantHeader carries the tenant on both gRPC metadata and HTTP requests.
const MerchantHeader = "x-merchant-id"

type merchantKey struct{}

func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, merchantKey{}, merchantID)
}

// GetMerchantID reads the merchant set by the interceptors, falling back to
// raw incoming metadata.
func GetMerchantID(ctx context.Context) string {
	if val, ok := ctx.Value(merchantKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(MerchantHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
