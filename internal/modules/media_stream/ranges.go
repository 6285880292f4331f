package mediastream

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mikey-austin/media_share/pkg/dlna"
)

var (
	errInvalidRange  = errors.New("invalid range")
	errUnsatisfiable = errors.New("range not satisfiable")
)

// byteRange is an inclusive span of file offsets.
type byteRange struct {
	Start int64
	End   int64
}

func (r byteRange) Length() int64 {
	return r.End - r.Start + 1
}

// parseByteRange parses a single "bytes=" range against size. Syntax errors
// return errInvalidRange so the caller can fall back to the full file.
func parseByteRange(header string, size int64) (byteRange, error) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(strings.ToLower(header), "bytes=") {
		return byteRange{}, errInvalidRange
	}
	set := strings.TrimSpace(header[len("bytes="):])
	if strings.Contains(set, ",") {
		return byteRange{}, errInvalidRange
	}
	startRaw, endRaw, ok := strings.Cut(set, "-")
	if !ok {
		return byteRange{}, errInvalidRange
	}
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)

	if startRaw == "" {
		n, err := strconv.ParseInt(endRaw, 10, 64)
		if err != nil || n < 0 {
			return byteRange{}, errInvalidRange
		}
		if n == 0 || size == 0 {
			return byteRange{}, errUnsatisfiable
		}
		if n > size {
			n = size
		}
		return byteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startRaw, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, errInvalidRange
	}
	end := size - 1
	if endRaw != "" {
		end, err = strconv.ParseInt(endRaw, 10, 64)
		if err != nil || end < start {
			return byteRange{}, errInvalidRange
		}
	}
	if start >= size {
		return byteRange{}, errUnsatisfiable
	}
	if end > size-1 {
		end = size - 1
	}
	return byteRange{Start: start, End: end}, nil
}

// timeSeekRange converts a TimeSeekRange.dlna.org request to byte offsets by
// proportion of duration.
func timeSeekRange(header string, duration time.Duration, size int64) (byteRange, dlna.NPTRange, error) {
	if duration <= 0 {
		return byteRange{}, dlna.NPTRange{}, errInvalidRange
	}
	npt, err := dlna.ParseTimeSeekRange(header)
	if err != nil {
		return byteRange{}, dlna.NPTRange{}, errInvalidRange
	}
	if npt.Start >= duration || size == 0 {
		return byteRange{}, npt, errUnsatisfiable
	}
	r := byteRange{Start: timeOffset(npt.Start, duration, size), End: size - 1}
	if npt.HasEnd {
		if npt.End > duration {
			npt.End = duration
		}
		if end := timeOffset(npt.End, duration, size) - 1; end < r.End {
			r.End = end
		}
	} else {
		npt.End = duration
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r, npt, nil
}

func timeOffset(t time.Duration, duration time.Duration, size int64) int64 {
	offset := int64(float64(size) * (t.Seconds() / duration.Seconds()))
	if offset < 0 {
		return 0
	}
	if offset > size {
		return size
	}
	return offset
}
