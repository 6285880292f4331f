package ffprobe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	freecache "github.com/coocood/freecache"
	gocache "github.com/eko/gocache/lib/v4/cache"
	libstore "github.com/eko/gocache/lib/v4/store"
	gocachefreecache "github.com/eko/gocache/store/freecache/v4"

	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"go.uber.org/zap"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config configures the ffprobe and ffmpeg collaborators.
type Config struct {
	FFprobePath    string
	FFmpegPath     string
	Timeout        time.Duration
	CacheSizeBytes int
	CacheTTL       time.Duration
	ThumbnailWidth int
}

// Prober reports media durations using ffprobe.
type Prober struct {
	log      *zap.Logger
	config   Config
	run      Runner
	enabled  bool
	cache    gocache.CacheInterface[[]byte]
	cacheCtx context.Context
}

// NewProber creates a duration prober. A nil runner executes real binaries.
func NewProber(log *zap.Logger, cfg Config, run Runner) *Prober {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = withDefaults(cfg)
	enabled := true
	if run == nil {
		run = execRunner
		if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
			log.Info("ffprobe not found; durations unknown", zap.String("path", cfg.FFprobePath))
			enabled = false
		}
	}
	return &Prober{
		log:      log,
		config:   cfg,
		run:      run,
		enabled:  enabled,
		cache:    newCache(cfg.CacheSizeBytes),
		cacheCtx: context.Background(),
	}
}

func withDefaults(cfg Config) Config {
	if strings.TrimSpace(cfg.FFprobePath) == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if strings.TrimSpace(cfg.FFmpegPath) == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheSizeBytes <= 0 {
		cfg.CacheSizeBytes = 4 * 1024 * 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = 320
	}
	return cfg
}

func newCache(size int) gocache.CacheInterface[[]byte] {
	if size < 512*1024 {
		size = 512 * 1024
	}
	store := gocachefreecache.NewFreecache(freecache.NewCache(size))
	return gocache.New[[]byte](store)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ProbeDuration returns the media duration of path, or false when unknown.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (time.Duration, bool) {
	if p == nil || !p.enabled {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	key := cacheKey(path, info.Size(), info.ModTime())
	if value, err := p.cache.Get(p.cacheCtx, key); err == nil {
		return decodeDuration(value)
	}

	d, ok := p.probe(ctx, path)
	_ = p.cache.Set(p.cacheCtx, key, encodeDuration(d, ok), libstore.WithExpiration(p.config.CacheTTL))
	return d, ok
}

func (p *Prober) probe(ctx context.Context, path string) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	started := time.Now()
	out, err := p.run(ctx, p.config.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	metrics.ProbeDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		p.log.Debug("ffprobe failed", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	return parseDuration(out)
}

func parseDuration(out []byte) (time.Duration, bool) {
	raw := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func cacheKey(path string, size int64, mod time.Time) string {
	return fmt.Sprintf("duration:%s|%d|%d", path, size, mod.UnixNano())
}

func encodeDuration(d time.Duration, ok bool) []byte {
	if !ok {
		return []byte("-1")
	}
	return []byte(strconv.FormatInt(int64(d), 10))
}

func decodeDuration(value []byte) (time.Duration, bool) {
	n, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n), true
}
