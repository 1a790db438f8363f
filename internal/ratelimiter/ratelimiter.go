package ratelimiter

import (
	"context"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// Limiter decides whether a client identified by key may make another
// request. When it may not, the duration says when to retry.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
