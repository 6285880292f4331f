package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
)

// HumanPrinter prints tables for terminals.
type HumanPrinter struct {
	Out io.Writer
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	switch data := v.(type) {
	case BrowseOutput:
		return p.printBrowse(data)
	case fmt.Stringer:
		_, err := fmt.Fprintln(p.Out, data.String())
		return err
	default:
		_, err := fmt.Fprintln(p.Out, "ok")
		return err
	}
}

func (p HumanPrinter) printBrowse(out BrowseOutput) error {
	if len(out.Entries) == 0 {
		_, err := fmt.Fprintf(p.Out, "%s: no entries (total %d)\n", out.ObjectID, out.TotalMatches)
		return err
	}
	data := pterm.TableData{{"ID", "KIND", "TITLE", "SIZE", "DURATION"}}
	for _, e := range out.Entries {
		kind := "item"
		size := humanSize(e.Size)
		if e.Container {
			kind = "dir"
			size = strconv.Itoa(e.ChildCount) + " entries"
		}
		data = append(data, []string{e.ID, kind, e.Title, size, e.Duration})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(p.Out).WithData(data).Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.Out, "%d of %d\n", out.NumberReturned, out.TotalMatches)
	return err
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
