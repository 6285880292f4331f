package msd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/ffprobe"
	"github.com/mikey-austin/media_share/internal/adapters/netif"
	"github.com/mikey-austin/media_share/internal/adapters/tags"
	"github.com/mikey-austin/media_share/internal/adapters/thumbcache"
	"github.com/mikey-austin/media_share/internal/core"
	contentdirectory "github.com/mikey-austin/media_share/internal/modules/content_directory"
	"github.com/mikey-austin/media_share/internal/modules/descriptor"
	"github.com/mikey-austin/media_share/internal/modules/httpserver"
	mediastream "github.com/mikey-austin/media_share/internal/modules/media_stream"
	"github.com/mikey-austin/media_share/internal/modules/ssdp"
	"github.com/mikey-austin/media_share/internal/ports"
	"go.uber.org/zap"
)

// App is the wired media server.
type App struct {
	Identity core.DeviceIdentity
	BaseURL  string
	Library  *core.Library

	modules []ModuleRunner
}

// Catalog is the browse side of the server, shared by the daemon and the
// local browse command.
type Catalog struct {
	Library *core.Library
	Browser *contentdirectory.Browser
	Prober  *ffprobe.Prober
}

// NewCatalog opens the shared folders and builds the ContentDirectory browser.
func NewCatalog(logger *zap.Logger, cfg Config) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib, err := core.NewLibrary(cfg.Shares.Folders)
	if err != nil {
		return nil, core.ErrorForStartup("shared folders", err)
	}
	for _, skipped := range lib.Skipped() {
		logger.Warn("skipping shared folder", zap.String("folder", skipped))
	}

	var prober *ffprobe.Prober
	var durations ports.DurationProber
	if cfg.Probe.Enabled {
		prober = ffprobe.NewProber(logger.With(zap.String("module", "ffprobe")), probeConfig(cfg), nil)
		durations = prober
	}
	var tagReader ports.TagReader
	if cfg.Browse.ReadTags {
		tagReader = tags.Reader{}
	}
	browser, err := contentdirectory.NewBrowser(logger.With(zap.String("module", "content_directory")), lib, durations, tagReader, contentdirectory.Config{
		ReadTags:   cfg.Browse.ReadTags,
		Durations:  cfg.Browse.Durations && cfg.Probe.Enabled,
		Thumbnails: cfg.Thumbnails.Enabled && cfg.Probe.Enabled,
	})
	if err != nil {
		return nil, err
	}
	return &Catalog{Library: lib, Browser: browser, Prober: prober}, nil
}

// Build opens the shares, binds the HTTP listener and wires every module.
func Build(logger *zap.Logger, cfg Config, version string) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog, err := NewCatalog(logger, cfg)
	if err != nil {
		return nil, err
	}
	identity := core.HostIdentity(cfg.Server.Name)

	host := strings.TrimSpace(cfg.Server.Host)
	if host == "" {
		host, err = netif.PreferredIPv4()
		if err != nil {
			logger.Warn("no LAN address found, advertising loopback", zap.Error(err))
			host = "127.0.0.1"
		}
	}

	httpCfg := httpserver.Config{
		BindHost:      cfg.Server.Bind,
		Port:          cfg.Server.Port,
		PortRange:     cfg.Server.PortRange,
		ShutdownGrace: cfg.ShutdownGrace(),
	}
	ln, port, err := httpserver.Listen(httpCfg)
	if err != nil {
		return nil, core.ErrorForStartup("http listener", err)
	}
	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port))

	docs, err := descriptor.New(logger.With(zap.String("module", "descriptor")), identity, baseURL, version)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	var thumbs ports.Thumbnailer
	if cfg.Thumbnails.Enabled && cfg.Probe.Enabled {
		extractor := ffprobe.NewExtractor(logger.With(zap.String("module", "ffmpeg")), probeConfig(cfg), nil)
		thumbs = thumbcache.New(logger.With(zap.String("module", "thumbcache")), extractor, cfg.Thumbnails.Capacity)
	}
	var durations ports.DurationProber
	if catalog.Prober != nil {
		durations = catalog.Prober
	}
	streamer, err := mediastream.NewStreamer(logger.With(zap.String("module", "media_stream")), catalog.Library, durations, thumbs)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	handler := httpserver.NewRouter(logger.With(zap.String("module", "http")), httpserver.Routes{
		Documents: docs,
		Control:   contentdirectory.NewHandler(logger.With(zap.String("module", "control")), catalog.Browser, baseURL),
		Media:     streamer,
		Metrics:   cfg.Server.Metrics,
	})
	server, err := httpserver.New(logger.With(zap.String("module", "http")), ln, handler, httpCfg)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	app := &App{
		Identity: identity,
		BaseURL:  baseURL,
		Library:  catalog.Library,
		modules:  []ModuleRunner{{Name: "http", Run: server.Run}},
	}

	if cfg.SSDP.Enabled {
		ssdpCfg := ssdp.DefaultConfig()
		ssdpCfg.Host = host
		ssdpCfg.Port = port
		ssdpCfg.Identity = identity
		ssdpCfg.ServerName = ssdp.DefaultServerName(version)
		ssdpCfg.MaxAge = cfg.SSDP.MaxAge
		ssdpCfg.InitialInterval = time.Duration(cfg.SSDP.InitialIntervalS) * time.Second
		ssdpCfg.MaxInterval = time.Duration(cfg.SSDP.MaxIntervalS) * time.Second
		svc, err := ssdp.New(logger.With(zap.String("module", "ssdp")), ssdpCfg, nil, nil)
		if err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("ssdp: %w", err)
		}
		app.modules = append(app.modules, ModuleRunner{Name: "ssdp", Run: svc.Run})
	}
	return app, nil
}

// Modules returns the long-running modules for the supervisor.
func (a *App) Modules() []ModuleRunner {
	return a.modules
}

func probeConfig(cfg Config) ffprobe.Config {
	return ffprobe.Config{
		FFprobePath:    cfg.Probe.FFprobe,
		FFmpegPath:     cfg.Probe.FFmpeg,
		Timeout:        time.Duration(cfg.Probe.TimeoutMS) * time.Millisecond,
		CacheSizeBytes: cfg.Probe.CacheMB * 1024 * 1024,
		CacheTTL:       time.Duration(cfg.Probe.CacheTTLMin) * time.Minute,
		ThumbnailWidth: cfg.Thumbnails.Width,
	}
}
