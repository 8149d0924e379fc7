package tabload

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	startedTimeKey  contextKey = "startedTime"
	rejectionLogKey contextKey = "rejectionLog"
)

func withStartedTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, startedTimeKey, time.Now())
}

func startedTimeFrom(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(startedTimeKey).(time.Time)
	return t, ok
}

func withRejectionLog(ctx context.Context, l *zerolog.Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, rejectionLogKey, l)
}

func rejectionLogFrom(ctx context.Context) *zerolog.Logger {
	l, _ := ctx.Value(rejectionLogKey).(*zerolog.Logger)
	return l
}
