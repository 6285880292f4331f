package output

import (
	"io"
	"os"

	contentdirectory "github.com/mikey-austin/media_share/internal/modules/content_directory"
	"github.com/mikey-austin/media_share/pkg/dlna"
)

// Printer renders command output.
type Printer interface {
	Print(v any) error
}

// New returns the JSON or human printer writing to w, or stdout when w is nil.
func New(w io.Writer, jsonOut bool) Printer {
	if w == nil {
		w = os.Stdout
	}
	if jsonOut {
		return JSONPrinter{Out: w}
	}
	return HumanPrinter{Out: w}
}

// BrowseOutput is a flattened Browse result for display.
type BrowseOutput struct {
	ObjectID       string  `json:"objectId"`
	BrowseFlag     string  `json:"browseFlag"`
	NumberReturned uint32  `json:"numberReturned"`
	TotalMatches   uint32  `json:"totalMatches"`
	Entries        []Entry `json:"entries"`
}

// Entry is one container or item of a Browse result.
type Entry struct {
	ID         string `json:"id"`
	ParentID   string `json:"parentId"`
	Title      string `json:"title"`
	Class      string `json:"class"`
	Container  bool   `json:"container"`
	ChildCount int    `json:"childCount,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Duration   string `json:"duration,omitempty"`
	URL        string `json:"url,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
}

// NewBrowseOutput flattens result for printing.
func NewBrowseOutput(req contentdirectory.BrowseRequest, result contentdirectory.BrowseResult) BrowseOutput {
	out := BrowseOutput{
		ObjectID:       req.ObjectID,
		BrowseFlag:     string(req.Flag),
		NumberReturned: result.NumberReturned,
		TotalMatches:   result.TotalMatches,
		Entries:        []Entry{},
	}
	for _, c := range result.Document.Containers {
		out.Entries = append(out.Entries, Entry{
			ID:         c.ID,
			ParentID:   c.ParentID,
			Title:      c.Title,
			Class:      c.Class,
			Container:  true,
			ChildCount: c.ChildCount,
		})
	}
	for _, item := range result.Document.Items {
		out.Entries = append(out.Entries, itemEntry(item))
	}
	return out
}

func itemEntry(item dlna.Item) Entry {
	e := Entry{
		ID:       item.ID,
		ParentID: item.ParentID,
		Title:    item.Title,
		Class:    item.Class,
		Artist:   item.Artist,
		Album:    item.Album,
	}
	if len(item.Res) > 0 {
		e.Size = item.Res[0].Size
		e.Duration = item.Res[0].Duration
		e.URL = item.Res[0].URL
	}
	return e
}
