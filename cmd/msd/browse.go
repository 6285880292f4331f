package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/media_share/internal/adapters/output"
	contentdirectory "github.com/mikey-austin/media_share/internal/modules/content_directory"
	"github.com/mikey-austin/media_share/internal/msd"
)

func browseCommand() *cobra.Command {
	var (
		flag  string
		start uint32
		count uint32
	)
	cmd := &cobra.Command{
		Use:   "browse [objectID]",
		Short: "Browse the shared folders as a renderer would",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			browseFlag, err := parseBrowseFlag(flag)
			if err != nil {
				return usageError("browse flag", err)
			}
			req := contentdirectory.BrowseRequest{
				ObjectID:       "0",
				Flag:           browseFlag,
				StartingIndex:  start,
				RequestedCount: count,
			}
			if len(args) == 1 {
				req.ObjectID = args[0]
			}

			logCfg := logConfig(a.cfg)
			logCfg.Writer = cmd.ErrOrStderr()
			logger := msd.NewLogger(logCfg)
			defer func() { _ = logger.Sync() }()

			catalog, err := msd.NewCatalog(logger, a.cfg)
			if err != nil {
				return err
			}
			result, err := catalog.Browser.Browse(cmd.Context(), req, localBaseURL(a.cfg))
			if err != nil {
				return usageError("browse", err)
			}
			return a.printer.Print(output.NewBrowseOutput(req, result))
		},
	}
	cmd.Flags().StringVar(&flag, "flag", "children", "browse flag (children|metadata)")
	cmd.Flags().Uint32Var(&start, "start", 0, "starting index")
	cmd.Flags().Uint32Var(&count, "count", 0, "requested count (0 for all)")
	return cmd
}

func parseBrowseFlag(value string) (contentdirectory.BrowseFlag, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "children", "":
		return contentdirectory.BrowseDirectChildren, nil
	case "metadata":
		return contentdirectory.BrowseMetadata, nil
	}
	return contentdirectory.ParseBrowseFlag(value)
}
