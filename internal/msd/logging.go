package msd

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig describes msd logging options.
type LogConfig struct {
	Level     string
	Format    string
	Output    string
	AddSource bool
	UTC       bool
	Color     bool
	// Writer overrides Output when set.
	Writer io.Writer
}

// NewLogger creates a structured logger for msd.
func NewLogger(cfg LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zapcore.InfoLevel
	}

	var writer io.Writer = os.Stdout
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		writer = os.Stderr
	case "", "stdout":
	default:
		writer = os.Stdout
	}
	if cfg.Writer != nil {
		writer = cfg.Writer
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.UTC {
		enc.EncodeTime = func(t time.Time, pe zapcore.PrimitiveArrayEncoder) {
			pe.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z0700"))
		}
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	opts := []zap.Option{}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	logger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(writer), level), opts...)
	version, commit := BuildVersion()
	return logger.With(
		zap.String("app", "msd"),
		zap.Int("pid", os.Getpid()),
		zap.String("version", version),
		zap.String("commit", commit),
	)
}

// BuildVersion reports the module version and VCS revision.
func BuildVersion() (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev", "unknown"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	commit := "unknown"
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			commit = setting.Value
			break
		}
	}
	return version, commit
}
