package apiexplorationv1

import (
	"context"

	"github.com/fulldump/refinery/service"
)

const ContextServicerKey = "5b0e8c3e-7f1d-11ef-a1c4-3f2e9b6d0c41"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
