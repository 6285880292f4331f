package ports

import (
	"context"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/tags"
	"github.com/mikey-austin/media_share/internal/adapters/thumbcache"
)

// DurationProber reports media durations when known.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, bool)
}

// TagReader reads embedded audio metadata.
type TagReader interface {
	Read(path string) tags.Metadata
}

// Thumbnailer returns JPEG thumbnails.
type Thumbnailer interface {
	Get(ctx context.Context, key thumbcache.Key) ([]byte, error)
}
