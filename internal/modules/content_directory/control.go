package contentdirectory

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mikey-austin/media_share/internal/adapters/idgen"
	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

const maxControlBody = 1 << 20

// Handler serves the SOAP control and event endpoints of the device services.
type Handler struct {
	log     *zap.Logger
	browser *Browser
	baseURL string
	ids     idgen.Generator
}

// NewHandler creates the control handler. baseURL is the advertised
// http://host:port used for item resource URLs.
func NewHandler(log *zap.Logger, browser *Browser, baseURL string) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log, browser: browser, baseURL: baseURL}
}

// ContentDirectory handles POST /ContentDirectory/control.
func (h *Handler) ContentDirectory(w http.ResponseWriter, r *http.Request) {
	action, ok := h.readAction(w, r, "ContentDirectory")
	if !ok {
		return
	}
	switch action.Name() {
	case "Browse":
		req, err := parseBrowseRequest(action)
		if err != nil {
			h.fault(w, "ContentDirectory", dlna.ErrorInvalidArgs, err.Error())
			return
		}
		result, err := h.browser.Browse(r.Context(), req, h.baseURL)
		if err != nil {
			h.fault(w, "ContentDirectory", dlna.ErrorInvalidArgs, err.Error())
			return
		}
		h.log.Debug("browse",
			zap.String("object_id", req.ObjectID),
			zap.String("flag", string(req.Flag)),
			zap.Uint32("start", req.StartingIndex),
			zap.Uint32("count", req.RequestedCount),
			zap.Uint32("returned", result.NumberReturned),
			zap.Uint32("total", result.TotalMatches),
		)
		h.respond(w, dlna.ContentDirectoryType, "Browse", []dlna.ResponseArg{
			{Name: "Result", Value: result.DIDL},
			{Name: "NumberReturned", Value: strconv.FormatUint(uint64(result.NumberReturned), 10)},
			{Name: "TotalMatches", Value: strconv.FormatUint(uint64(result.TotalMatches), 10)},
			{Name: "UpdateID", Value: strconv.FormatUint(uint64(result.UpdateID), 10)},
		})
	case "GetSystemUpdateID":
		h.respond(w, dlna.ContentDirectoryType, "GetSystemUpdateID", []dlna.ResponseArg{
			{Name: "Id", Value: strconv.Itoa(SystemUpdateID)},
		})
	case "GetSearchCapabilities":
		h.respond(w, dlna.ContentDirectoryType, "GetSearchCapabilities", []dlna.ResponseArg{
			{Name: "SearchCaps", Value: ""},
		})
	case "GetSortCapabilities":
		h.respond(w, dlna.ContentDirectoryType, "GetSortCapabilities", []dlna.ResponseArg{
			{Name: "SortCaps", Value: ""},
		})
	default:
		h.fault(w, "ContentDirectory", dlna.ErrorInvalidAction, "Invalid Action")
	}
}

// ConnectionManager handles POST /ConnectionManager/control.
func (h *Handler) ConnectionManager(w http.ResponseWriter, r *http.Request) {
	action, ok := h.readAction(w, r, "ConnectionManager")
	if !ok {
		return
	}
	switch action.Name() {
	case "GetProtocolInfo":
		h.respond(w, dlna.ConnectionManagerType, "GetProtocolInfo", []dlna.ResponseArg{
			{Name: "Source", Value: sourceProtocolInfo()},
			{Name: "Sink", Value: ""},
		})
	case "GetCurrentConnectionIDs":
		h.respond(w, dlna.ConnectionManagerType, "GetCurrentConnectionIDs", []dlna.ResponseArg{
			{Name: "ConnectionIDs", Value: "0"},
		})
	case "GetCurrentConnectionInfo":
		if id, _ := action.Arg("ConnectionID"); id != "0" {
			h.fault(w, "ConnectionManager", dlna.ErrorInvalidArgs, "Invalid Args")
			return
		}
		h.respond(w, dlna.ConnectionManagerType, "GetCurrentConnectionInfo", []dlna.ResponseArg{
			{Name: "RcsID", Value: "-1"},
			{Name: "AVTransportID", Value: "-1"},
			{Name: "ProtocolInfo", Value: ""},
			{Name: "PeerConnectionManager", Value: ""},
			{Name: "PeerConnectionID", Value: "-1"},
			{Name: "Direction", Value: "Output"},
			{Name: "Status", Value: "OK"},
		})
	default:
		h.fault(w, "ConnectionManager", dlna.ErrorInvalidAction, "Invalid Action")
	}
}

// AVTransport handles POST /AVTransport/control. Transport control is
// advertised only.
func (h *Handler) AVTransport(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.readAction(w, r, "AVTransport"); !ok {
		return
	}
	h.fault(w, "AVTransport", dlna.ErrorInvalidAction, "Invalid Action")
}

// Subscribe handles GENA SUBSCRIBE on an event URL. No events are sent.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(r.Header.Get("SID"))
	if sid == "" {
		if r.Header.Get("CALLBACK") == "" || r.Header.Get("NT") != "upnp:event" {
			http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
			return
		}
		sid = h.ids.SID()
	}
	w.Header().Set("SID", sid)
	w.Header().Set("TIMEOUT", fmt.Sprintf("Second-%d", dlna.DefaultMaxAge))
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

// Unsubscribe handles GENA UNSUBSCRIBE on an event URL.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.Header.Get("SID")) == "" {
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) readAction(w http.ResponseWriter, r *http.Request, service string) (dlna.Action, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxControlBody))
	if err != nil {
		h.fault(w, service, dlna.ErrorInvalidArgs, "unreadable request")
		return dlna.Action{}, false
	}
	action, err := dlna.ParseAction(body)
	if err != nil {
		h.log.Warn("malformed soap request",
			zap.String("service", service),
			zap.String("soapaction", r.Header.Get("SOAPACTION")),
			zap.String("remote", r.RemoteAddr),
			zap.Error(err),
		)
		h.fault(w, service, dlna.ErrorInvalidArgs, "Invalid Args")
		return dlna.Action{}, false
	}
	return action, true
}

func (h *Handler) respond(w http.ResponseWriter, serviceType string, action string, args []dlna.ResponseArg) {
	payload := dlna.BuildActionResponse(serviceType, action, args)
	writeXML(w, http.StatusOK, payload)
}

func (h *Handler) fault(w http.ResponseWriter, service string, code int, description string) {
	metrics.SOAPFaults.WithLabelValues(service, strconv.Itoa(code)).Inc()
	h.log.Warn("soap fault",
		zap.String("service", service),
		zap.Int("code", code),
		zap.String("description", description),
	)
	writeXML(w, http.StatusBadRequest, dlna.BuildFault(code, description))
}

func writeXML(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("EXT", "")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func parseBrowseRequest(action dlna.Action) (BrowseRequest, error) {
	objectID, ok := action.Arg("ObjectID")
	if !ok || objectID == "" {
		return BrowseRequest{}, fmt.Errorf("missing ObjectID")
	}
	flagRaw, ok := action.Arg("BrowseFlag")
	if !ok {
		return BrowseRequest{}, fmt.Errorf("missing BrowseFlag")
	}
	flag, err := ParseBrowseFlag(flagRaw)
	if err != nil {
		return BrowseRequest{}, err
	}
	start, err := uintArg(action, "StartingIndex")
	if err != nil {
		return BrowseRequest{}, err
	}
	count, err := uintArg(action, "RequestedCount")
	if err != nil {
		return BrowseRequest{}, err
	}
	filter, _ := action.Arg("Filter")
	sortCriteria, _ := action.Arg("SortCriteria")
	return BrowseRequest{
		ObjectID:       objectID,
		Flag:           flag,
		StartingIndex:  start,
		RequestedCount: count,
		Filter:         filter,
		SortCriteria:   sortCriteria,
	}, nil
}

func uintArg(action dlna.Action, name string) (uint32, error) {
	raw, ok := action.Arg(name)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint32(v), nil
}

func sourceProtocolInfo() string {
	seen := map[string]bool{}
	var out []string
	for _, format := range core.Formats() {
		info := "http-get:*:" + format.MimeType + ":*"
		if seen[info] {
			continue
		}
		seen[info] = true
		out = append(out, info)
	}
	return strings.Join(out, ",")
}
