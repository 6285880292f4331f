package contentdirectory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/internal/ports"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

// SystemUpdateID is constant because shared folders are treated as read-only.
const SystemUpdateID = 1

// ErrInvalidBrowseFlag is returned for BrowseFlag values other than the two defined.
var ErrInvalidBrowseFlag = errors.New("invalid browse flag")

// BrowseFlag selects between self description and child listing.
type BrowseFlag string

const (
	BrowseMetadata       BrowseFlag = "BrowseMetadata"
	BrowseDirectChildren BrowseFlag = "BrowseDirectChildren"
)

// BrowseRequest is one Browse action invocation. Filter and SortCriteria are
// accepted but not applied.
type BrowseRequest struct {
	ObjectID       string     `json:"objectId"`
	Flag           BrowseFlag `json:"browseFlag"`
	StartingIndex  uint32     `json:"startingIndex"`
	RequestedCount uint32     `json:"requestedCount"`
	Filter         string     `json:"filter,omitempty"`
	SortCriteria   string     `json:"sortCriteria,omitempty"`
}

// BrowseResult is the reply to a Browse action.
type BrowseResult struct {
	DIDL           string        `json:"didl"`
	NumberReturned uint32        `json:"numberReturned"`
	TotalMatches   uint32        `json:"totalMatches"`
	UpdateID       uint32        `json:"updateId"`
	Document       dlna.DIDLLite `json:"-"`
}

// Config configures DIDL-Lite generation.
type Config struct {
	RootTitle  string
	ReadTags   bool
	Durations  bool
	Thumbnails bool
}

// Browser answers Browse requests from the shared folders.
type Browser struct {
	log    *zap.Logger
	lib    *core.Library
	prober ports.DurationProber
	tags   ports.TagReader
	config Config
}

// NewBrowser creates a ContentDirectory browser. prober and tagReader may be nil.
func NewBrowser(log *zap.Logger, lib *core.Library, prober ports.DurationProber, tagReader ports.TagReader, cfg Config) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if lib == nil {
		return nil, errors.New("library required")
	}
	if strings.TrimSpace(cfg.RootTitle) == "" {
		cfg.RootTitle = filepath.Base(lib.Root())
	}
	return &Browser{
		log:    log,
		lib:    lib,
		prober: prober,
		tags:   tagReader,
		config: cfg,
	}, nil
}

// ParseBrowseFlag validates a BrowseFlag argument.
func ParseBrowseFlag(value string) (BrowseFlag, error) {
	switch BrowseFlag(strings.TrimSpace(value)) {
	case BrowseMetadata:
		return BrowseMetadata, nil
	case BrowseDirectChildren:
		return BrowseDirectChildren, nil
	default:
		return "", ErrInvalidBrowseFlag
	}
}

// Browse resolves req against the shared folders. Object IDs that do not
// resolve and starting indexes past the end yield an empty result.
func (b *Browser) Browse(ctx context.Context, req BrowseRequest, baseURL string) (BrowseResult, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	switch req.Flag {
	case BrowseMetadata:
		metrics.BrowseRequests.WithLabelValues(string(req.Flag)).Inc()
		return b.browseMetadata(ctx, req, baseURL)
	case BrowseDirectChildren:
		metrics.BrowseRequests.WithLabelValues(string(req.Flag)).Inc()
		return b.browseChildren(ctx, req, baseURL)
	default:
		return BrowseResult{}, ErrInvalidBrowseFlag
	}
}

func (b *Browser) browseMetadata(ctx context.Context, req BrowseRequest, baseURL string) (BrowseResult, error) {
	item, err := b.lib.Stat(req.ObjectID)
	if err != nil {
		b.log.Debug("browse metadata unresolved", zap.String("object_id", req.ObjectID), zap.Error(err))
		return b.result(dlna.NewDIDLLite(), 0)
	}
	doc := dlna.NewDIDLLite()
	b.appendObject(ctx, &doc, item, "", baseURL)
	return b.result(doc, 1)
}

func (b *Browser) browseChildren(ctx context.Context, req BrowseRequest, baseURL string) (BrowseResult, error) {
	items, err := b.lib.List(req.ObjectID)
	if err != nil {
		b.log.Debug("browse children unresolved", zap.String("object_id", req.ObjectID), zap.Error(err))
		return b.result(dlna.NewDIDLLite(), 0)
	}
	start := int(req.StartingIndex)
	paged := paginate(items, start, int(req.RequestedCount))
	doc := dlna.NewDIDLLite()
	for i, item := range paged {
		next := ""
		if item.Kind() == core.KindAudio {
			next = nextAudioURL(items, start+i, baseURL)
		}
		b.appendObject(ctx, &doc, item, next, baseURL)
	}
	return b.result(doc, len(items))
}

func (b *Browser) result(doc dlna.DIDLLite, total int) (BrowseResult, error) {
	didl, err := doc.Marshal()
	if err != nil {
		return BrowseResult{}, err
	}
	return BrowseResult{
		DIDL:           didl,
		NumberReturned: uint32(doc.Len()),
		TotalMatches:   uint32(total),
		UpdateID:       SystemUpdateID,
		Document:       doc,
	}, nil
}

func (b *Browser) appendObject(ctx context.Context, doc *dlna.DIDLLite, item core.MediaItem, nextAV string, baseURL string) {
	obj := dlna.Object{
		ID:         item.ObjectID,
		ParentID:   item.ParentID,
		Restricted: 1,
		Title:      item.Title(),
		Date:       dlna.FormatDate(item.ModTime),
	}
	if item.IsDir {
		if item.ObjectID == core.RootID {
			obj.Title = b.config.RootTitle
		}
		obj.Class = dlna.ClassStorageFolder
		doc.Containers = append(doc.Containers, dlna.Container{
			Object:     obj,
			ChildCount: b.lib.CountChildren(item.Path),
		})
		return
	}

	resURL := MediaURL(baseURL, item.ObjectID)
	obj.Class = item.Kind().Class()
	duration, known := b.duration(ctx, item)
	res := dlna.Resource{
		ProtocolInfo: item.Format.ProtocolInfo(known),
		Size:         item.Size,
		URL:          resURL,
	}
	if known {
		res.Duration = dlna.FormatDuration(duration)
	}

	switch item.Kind() {
	case core.KindAudio:
		if b.config.ReadTags && b.tags != nil {
			meta := b.tags.Read(item.Path)
			if meta.Title != "" {
				obj.Title = meta.Title
			}
			obj.Artist = meta.Artist
			obj.Album = meta.Album
		}
	case core.KindVideo, core.KindImage:
		if b.config.Thumbnails {
			obj.AlbumArtURI = resURL + "?thumbnail=1"
		}
	}

	doc.Items = append(doc.Items, dlna.Item{
		Object: obj,
		Res:    []dlna.Resource{res},
		NextAV: nextAV,
	})
}

func (b *Browser) duration(ctx context.Context, item core.MediaItem) (time.Duration, bool) {
	if !b.config.Durations || b.prober == nil || item.Kind() == core.KindImage {
		return 0, false
	}
	return b.prober.ProbeDuration(ctx, item.Path)
}

// MediaURL returns the streaming URL of an object.
func MediaURL(baseURL string, objectID string) string {
	return strings.TrimRight(baseURL, "/") + "/" + objectID
}

func nextAudioURL(items []core.MediaItem, idx int, baseURL string) string {
	for i := idx + 1; i < len(items); i++ {
		if !items[i].IsDir && items[i].Kind() == core.KindAudio {
			return MediaURL(baseURL, items[i].ObjectID)
		}
	}
	return ""
}

func paginate[T any](items []T, start int, count int) []T {
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return nil
	}
	if count <= 0 {
		count = len(items)
	}
	end := start + count
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}
