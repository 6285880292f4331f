package mediastream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"github.com/mikey-austin/media_share/internal/adapters/thumbcache"
	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/internal/ports"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

// ChunkSize is the copy buffer size for media responses.
const ChunkSize = 64 * 1024

// Streamer serves shared media files over GET and HEAD.
type Streamer struct {
	log    *zap.Logger
	lib    *core.Library
	prober ports.DurationProber
	thumbs ports.Thumbnailer
}

// NewStreamer creates a media streamer. prober and thumbs may be nil.
func NewStreamer(log *zap.Logger, lib *core.Library, prober ports.DurationProber, thumbs ports.Thumbnailer) (*Streamer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if lib == nil {
		return nil, errors.New("library required")
	}
	return &Streamer{log: log, lib: lib, prober: prober, thumbs: thumbs}, nil
}

// ServeHTTP serves /<objectId>.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/")
	if rel == "" || strings.HasSuffix(strings.ToLower(rel), ".xml") {
		s.notFound(w, r, errors.New("no such document"))
		return
	}
	path, err := s.lib.Resolve(core.EncodeRelative(rel))
	if err != nil {
		s.notFound(w, r, err)
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.notFound(w, r, fmt.Errorf("%w: not a file", core.ErrNotFound))
		return
	}
	format, ok := core.LookupFormat(path)
	if !ok {
		s.status(w, http.StatusUnsupportedMediaType)
		return
	}
	if r.URL.Query().Get("thumbnail") == "1" {
		s.serveThumbnail(w, r, path, format)
		return
	}

	size := info.Size()
	duration, known := s.duration(r.Context(), path, format)
	cf := format.Features(known)
	h := w.Header()
	h.Set("Content-Type", format.MimeType)
	h.Set("Accept-Ranges", "bytes")
	h.Set(dlna.HeaderTransferMode, cf.TransferMode())
	h.Set(dlna.HeaderContentFeatures, cf.String())
	if known {
		h.Set(dlna.HeaderTimeSeekRange, "npt=0.0-"+dlna.FormatNPT(duration))
		h.Set(dlna.HeaderContentDuration, dlna.FormatNPT(duration))
	}

	span := byteRange{Start: 0, End: size - 1}
	partial := false
	if r.Method != http.MethodHead {
		var err error
		span, partial, err = s.negotiate(r, h, size, duration, known)
		if errors.Is(err, errUnsatisfiable) {
			h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			s.status(w, http.StatusRequestedRangeNotSatisfiable)
			return
		}
	}

	status := http.StatusOK
	length := size
	if partial {
		status = http.StatusPartialContent
		length = span.Length()
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", span.Start, span.End, size))
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		metrics.StreamResponses.WithLabelValues(strconv.Itoa(status)).Inc()
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.Del("Content-Range")
		s.notFound(w, r, err)
		return
	}
	defer f.Close()
	if span.Start > 0 {
		if _, err := f.Seek(span.Start, io.SeekStart); err != nil {
			s.status(w, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(status)
	metrics.StreamResponses.WithLabelValues(strconv.Itoa(status)).Inc()
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	n, err := copyChunks(w, f, length)
	metrics.StreamBytes.Add(float64(n))
	switch {
	case err == nil:
		s.log.Debug("stream complete", zap.String("path", rel), zap.Int64("bytes", n), zap.Int("status", status))
	case isClientGone(err):
		s.log.Debug("client disconnected", zap.String("path", rel), zap.Int64("bytes", n), zap.Error(err))
	default:
		s.log.Warn("stream failed", zap.String("path", rel), zap.Int64("bytes", n), zap.Error(err))
	}
}

// negotiate picks the byte span from Range, or from TimeSeekRange.dlna.org
// when no Range header is present and the duration is known.
func (s *Streamer) negotiate(r *http.Request, h http.Header, size int64, duration time.Duration, known bool) (byteRange, bool, error) {
	full := byteRange{Start: 0, End: size - 1}
	if header := r.Header.Get("Range"); header != "" {
		span, err := parseByteRange(header, size)
		if errors.Is(err, errInvalidRange) {
			s.log.Debug("ignoring invalid range", zap.String("range", header))
			return full, false, nil
		}
		if err != nil {
			return full, false, err
		}
		return span, true, nil
	}
	header := r.Header.Get(dlna.HeaderTimeSeekRange)
	if header == "" || !known {
		return full, false, nil
	}
	span, npt, err := timeSeekRange(header, duration, size)
	if errors.Is(err, errInvalidRange) {
		s.log.Debug("ignoring invalid time seek", zap.String("range", header))
		return full, false, nil
	}
	if err != nil {
		return full, false, err
	}
	h.Set(dlna.HeaderTimeSeekRange, fmt.Sprintf("npt=%s-%s/%s bytes=%d-%d/%d",
		dlna.FormatNPT(npt.Start), dlna.FormatNPT(npt.End), dlna.FormatNPT(duration),
		span.Start, span.End, size))
	return span, true, nil
}

func (s *Streamer) serveThumbnail(w http.ResponseWriter, r *http.Request, path string, format core.Format) {
	if s.thumbs == nil || format.Kind == core.KindAudio {
		s.notFound(w, r, errors.New("thumbnail unavailable"))
		return
	}
	data, err := s.thumbs.Get(r.Context(), thumbcache.Key{Path: path, IsVideo: format.Kind == core.KindVideo})
	if err != nil {
		s.notFound(w, r, err)
		return
	}
	cf := dlna.ContentFeatures{ProfileName: "JPEG_TN", SupportRange: true, Interactive: true}
	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(dlna.HeaderTransferMode, cf.TransferMode())
	h.Set(dlna.HeaderContentFeatures, cf.String())
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (s *Streamer) duration(ctx context.Context, path string, format core.Format) (time.Duration, bool) {
	if s.prober == nil || format.Kind == core.KindImage {
		return 0, false
	}
	d, ok := s.prober.ProbeDuration(ctx, path)
	if !ok || d <= 0 {
		return 0, false
	}
	return d, true
}

func (s *Streamer) notFound(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Debug("media not found", zap.String("path", r.URL.Path), zap.Error(err))
	s.status(w, http.StatusNotFound)
}

func (s *Streamer) status(w http.ResponseWriter, code int) {
	metrics.StreamResponses.WithLabelValues(strconv.Itoa(code)).Inc()
	http.Error(w, http.StatusText(code), code)
}

// copyChunks writes exactly n bytes from src in ChunkSize pieces.
func copyChunks(dst io.Writer, src io.Reader, n int64) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for written < n {
		want := int64(len(buf))
		if remaining := n - written; remaining < want {
			want = remaining
		}
		read, rerr := src.Read(buf[:want])
		if read > 0 {
			wrote, werr := dst.Write(buf[:read])
			written += int64(wrote)
			if werr != nil {
				return written, werr
			}
			if wrote != read {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) && written == n {
				return written, nil
			}
			if errors.Is(rerr, io.EOF) {
				return written, io.ErrUnexpectedEOF
			}
			return written, rerr
		}
	}
	return written, nil
}

func isClientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
