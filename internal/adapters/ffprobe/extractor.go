package ffprobe

import (
	"context"
	"errors"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// ErrEmptyFrame is returned when ffmpeg produces no output.
var ErrEmptyFrame = errors.New("ffmpeg produced no frame")

// Extractor renders JPEG thumbnails using ffmpeg.
type Extractor struct {
	log     *zap.Logger
	config  Config
	run     Runner
	enabled bool
}

// NewExtractor creates a thumbnail extractor. A nil runner executes real binaries.
func NewExtractor(log *zap.Logger, cfg Config, run Runner) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = withDefaults(cfg)
	enabled := true
	if run == nil {
		run = execRunner
		if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
			log.Info("ffmpeg not found; thumbnails disabled", zap.String("path", cfg.FFmpegPath))
			enabled = false
		}
	}
	return &Extractor{log: log, config: cfg, run: run, enabled: enabled}
}

// ExtractFrame returns a scaled JPEG for an image or a frame of a video.
func (e *Extractor) ExtractFrame(ctx context.Context, path string, isVideo bool) ([]byte, error) {
	if !e.enabled {
		return nil, exec.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	args := []string{"-v", "error"}
	if isVideo {
		args = append(args, "-ss", "10")
	}
	args = append(args,
		"-i", path,
		"-frames:v", "1",
		"-vf", "scale="+strconv.Itoa(e.config.ThumbnailWidth)+":-2",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	out, err := e.run(ctx, e.config.FFmpegPath, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && isVideo {
		// Clips shorter than the seek offset yield nothing; retry from the start.
		out, err = e.run(ctx, e.config.FFmpegPath, append([]string{"-v", "error"}, args[4:]...)...)
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyFrame
	}
	return out, nil
}
