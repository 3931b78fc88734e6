package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/types"
)

const DefaultUserID = "usertest0000000000000000000"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
