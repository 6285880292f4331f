package ssdp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/mikey-austin/media_share/pkg/dlna"
)

var errNotSearch = errors.New("not an ssdp search")

// DefaultServerName builds the SERVER header value.
func DefaultServerName(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/1.0 UPnP/1.0 DLNADOC/1.50 media_share/%s", runtime.GOOS, version)
}

type header struct {
	name  string
	value string
}

func writeMessage(startLine string, headers []header) []byte {
	var b bytes.Buffer
	b.WriteString(startLine)
	b.WriteString("\r\n")
	for _, h := range headers {
		b.WriteString(h.name)
		b.WriteString(":")
		if h.value != "" {
			b.WriteString(" ")
			b.WriteString(h.value)
		}
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

func (s *Service) notifyMessage(nt string, nts string) []byte {
	headers := []header{{"HOST", dlna.MulticastAddr}}
	if nts == dlna.NTSAlive {
		headers = append(headers,
			header{"CACHE-CONTROL", fmt.Sprintf("max-age=%d", s.cfg.MaxAge)},
			header{"LOCATION", s.location},
		)
	}
	headers = append(headers,
		header{"NT", nt},
		header{"NTS", nts},
	)
	if nts == dlna.NTSAlive {
		headers = append(headers, header{"SERVER", s.cfg.ServerName})
	}
	headers = append(headers, header{"USN", dlna.USN(s.cfg.Identity.UUID, nt)})
	return writeMessage("NOTIFY * HTTP/1.1", headers)
}

func (s *Service) searchResponse(st string, now time.Time) []byte {
	return writeMessage("HTTP/1.1 200 OK", []header{
		{"CACHE-CONTROL", fmt.Sprintf("max-age=%d", s.cfg.MaxAge)},
		{"DATE", now.UTC().Format(http.TimeFormat)},
		{"EXT", ""},
		{"LOCATION", s.location},
		{"SERVER", s.cfg.ServerName},
		{"ST", st},
		{"USN", dlna.USN(s.cfg.Identity.UUID, st)},
		{"Content-Length", "0"},
	})
}

// parseSearch returns the ST of a valid M-SEARCH datagram.
func parseSearch(data []byte) (string, error) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return "", err
	}
	if req.Method != "M-SEARCH" || req.URL == nil || req.URL.Path != "*" {
		return "", errNotSearch
	}
	if strings.TrimSpace(req.Header.Get("MAN")) != dlna.DiscoverMan {
		return "", fmt.Errorf("%w: bad MAN %q", errNotSearch, req.Header.Get("MAN"))
	}
	st := strings.TrimSpace(req.Header.Get("ST"))
	if st == "" {
		return "", fmt.Errorf("%w: missing ST", errNotSearch)
	}
	return st, nil
}
