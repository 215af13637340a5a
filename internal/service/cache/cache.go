package cache

import (
	"context"
	"time"
)

// BytesCache stores raw bytes with a TTL. A miss is ok=false with a nil error.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
