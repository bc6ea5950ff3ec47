package service

import (
	"context"
	"time"

	"onboard/pkg/requestcontext"
)

func nowFrom(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}
