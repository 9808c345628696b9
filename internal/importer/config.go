package importer

import (
	"context"
	"time"
)

// DuplicatePolicy decides what happens when the destination rejects a record
// because one with the same entry and type already exists.
type DuplicatePolicy string

// Duplicate policies.
const (
	// DuplicateFail counts the record as failed.
	DuplicateFail DuplicatePolicy = "fail"
	// DuplicateReplace overwrites the existing record.
	DuplicateReplace DuplicatePolicy = "replace"
)

// Defaults.
const (
	DefaultChunkSize    = 10
	DefaultChunkDelay   = 300 * time.Millisecond
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultRetryBackoff = 2 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config tunes an import run.
type Config struct {
	// Sleep replaces the context-aware timer used for every delay when set.
	Sleep SleepFunc
	// OnDuplicate is applied to duplicate-record rejections.
	OnDuplicate DuplicatePolicy
	// ChunkSize is the number of records dispatched concurrently.
	ChunkSize int
	// ChunkDelay is the pause between two chunks.
	ChunkDelay time.Duration
	// MaxAttempts is the number of tries per record on transport failures.
	MaxAttempts int
	// InitialDelay is waited before the first attempt of every record.
	InitialDelay time.Duration
	// RetryBackoff is multiplied by the attempt number before a retry.
	RetryBackoff time.Duration
	// MaxEmptyChunks aborts the run after that many consecutive chunks
	// without a single success. Zero never aborts.
	MaxEmptyChunks int
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		OnDuplicate:  DuplicateFail,
		ChunkSize:    DefaultChunkSize,
		ChunkDelay:   DefaultChunkDelay,
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// normalize fills values that would make a run impossible. Zero delays are
// kept as they are.
func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.OnDuplicate == "" {
		c.OnDuplicate = DuplicateFail
	}
	if c.ChunkDelay < 0 {
		c.ChunkDelay = 0
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.MaxEmptyChunks < 0 {
		c.MaxEmptyChunks = 0
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
