package main

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/media_share/internal/adapters/output"
	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/internal/msd"
)

type options struct {
	configPath string
	jsonOut    bool
	logLevel   string
	logFormat  string
	logOutput  string
	logSource  bool
	logUTC     bool
	logColor   bool
	folders    []string
	port       int
	name       string
	host       string
	metrics    bool
	noSSDP     bool
}

type app struct {
	cfg     msd.Config
	printer output.Printer
	json    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(core.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	version, _ := msd.BuildVersion()

	root := &cobra.Command{
		Use:          "msd [folder...]",
		Short:        "Media Share DLNA server",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
	}

	defaultConfig, err := msd.DefaultConfigPath()
	if err != nil {
		defaultConfig = "msd.toml"
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfig, "config file path")
	root.PersistentFlags().BoolVarP(&opts.jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format override (text|json)")
	root.PersistentFlags().StringVar(&opts.logOutput, "log-output", "", "log output override (stdout|stderr)")
	root.PersistentFlags().BoolVar(&opts.logSource, "log-source", false, "include source file in logs")
	root.PersistentFlags().BoolVar(&opts.logUTC, "log-utc", false, "use UTC timestamps in logs")
	root.PersistentFlags().BoolVar(&opts.logColor, "log-color", false, "enable colored log output (text only)")
	root.PersistentFlags().StringSliceVarP(&opts.folders, "folder", "f", nil, "shared folder (repeatable)")
	root.PersistentFlags().IntVarP(&opts.port, "port", "p", 0, "HTTP port override")
	root.PersistentFlags().StringVar(&opts.name, "name", "", "friendly name override")
	root.PersistentFlags().StringVar(&opts.host, "host", "", "advertised host override")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "serve prometheus metrics on /metrics")
	root.PersistentFlags().BoolVar(&opts.noSSDP, "no-ssdp", false, "disable SSDP discovery")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return core.WrapError(core.ExitUsage, "invalid flags", err)
	})

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := msd.LoadOrDefault(opts.configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return core.WrapError(core.ExitUsage, "load config", err)
		}
		if cmd == root || cmd.Name() == "serve" {
			opts.folders = append(opts.folders, args...)
		}
		applyOverrides(&cfg, opts)

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			cfg:     cfg,
			printer: output.New(cmd.OutOrStdout(), opts.jsonOut),
			json:    opts.jsonOut,
		}))
		return nil
	}
	root.RunE = runServe

	root.AddCommand(serveCommand())
	root.AddCommand(browseCommand())
	root.AddCommand(printConfigCommand())
	return root
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func applyOverrides(cfg *msd.Config, opts options) {
	if len(opts.folders) > 0 {
		cfg.Shares.Folders = append([]string(nil), opts.folders...)
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}
	if opts.name != "" {
		cfg.Server.Name = opts.name
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.metrics {
		cfg.Server.Metrics = true
	}
	if opts.noSSDP {
		cfg.SSDP.Enabled = false
	}
	if opts.logLevel != "" {
		cfg.Server.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Server.LogFormat = opts.logFormat
	}
	if opts.logOutput != "" {
		cfg.Server.LogOutput = opts.logOutput
	}
	if opts.logSource {
		cfg.Server.LogSource = true
	}
	if opts.logUTC {
		cfg.Server.LogUTC = true
	}
	if opts.logColor {
		cfg.Server.LogColor = true
	}
}

func logConfig(cfg msd.Config) msd.LogConfig {
	return msd.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
		Color:     cfg.Server.LogColor,
	}
}

// localBaseURL is the resource URL prefix used when browsing without a
// running server.
func localBaseURL(cfg msd.Config) string {
	host := strings.TrimSpace(cfg.Server.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
}

func usageError(msg string, err error) error {
	var cliErr *core.CLIError
	if errors.As(err, &cliErr) {
		return err
	}
	return core.WrapError(core.ExitUsage, msg, err)
}
