package cache

import "time"

// BytesCache stores serialized curve windows keyed by date range. The moex
// client treats read errors as misses, so implementations may fail soft.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
