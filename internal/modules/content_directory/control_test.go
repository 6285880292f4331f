package contentdirectory

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

func soapBody(action string, args string) string {
	return `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>` +
		`<u:` + action + ` xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">` + args + `</u:` + action + `>` +
		`</s:Body></s:Envelope>`
}

type browseEnvelope struct {
	Body struct {
		Response struct {
			Result         string `xml:"Result"`
			NumberReturned int    `xml:"NumberReturned"`
			TotalMatches   int    `xml:"TotalMatches"`
			UpdateID       int    `xml:"UpdateID"`
		} `xml:"BrowseResponse"`
		Fault struct {
			Detail struct {
				Error struct {
					Code int `xml:"errorCode"`
				} `xml:"UPnPError"`
			} `xml:"detail"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

func post(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, browseEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader(body))
	req.Header.Set("SOAPACTION", `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`)
	rec := httptest.NewRecorder()
	handler(rec, req)
	var env browseEnvelope
	if err := xml.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not xml: %v: %s", err, rec.Body.String())
	}
	return rec, env
}

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	browser, root := newTestBrowser(t, Config{}, nil)
	return NewHandler(zap.NewNop(), browser, testBaseURL), root
}

func TestControlBrowse(t *testing.T) {
	handler, root := newTestHandler(t)
	writeFile(t, filepath.Join(root, "A & B.mkv"), 10)
	writeFile(t, filepath.Join(root, "Sub", "c.mp3"), 10)

	rec, env := post(t, handler.ContentDirectory, soapBody("Browse",
		`<ObjectID>0</ObjectID><BrowseFlag>BrowseDirectChildren</BrowseFlag><Filter>*</Filter><StartingIndex>0</StartingIndex><RequestedCount>0</RequestedCount><SortCriteria></SortCriteria>`))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/xml") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if strings.Contains(rec.Body.String(), "<DIDL-Lite") {
		t.Fatalf("DIDL-Lite must be escaped inside Result")
	}
	resp := env.Body.Response
	if resp.NumberReturned != 2 || resp.TotalMatches != 2 || resp.UpdateID != SystemUpdateID {
		t.Fatalf("unexpected response %+v", resp)
	}

	var doc dlna.DIDLLite
	if err := xml.Unmarshal([]byte(resp.Result), &doc); err != nil {
		t.Fatalf("result is not DIDL-Lite: %v", err)
	}
	if len(doc.Containers) != 1 || len(doc.Items) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Items[0].Res[0].URL != testBaseURL+"/A%20&%20B.mkv" {
		t.Fatalf("unexpected url %q", doc.Items[0].Res[0].URL)
	}
}

func TestControlBrowseMalformed(t *testing.T) {
	handler, _ := newTestHandler(t)
	cases := []string{
		soapBody("Browse", `<BrowseFlag>BrowseDirectChildren</BrowseFlag>`),
		soapBody("Browse", `<ObjectID>0</ObjectID><BrowseFlag>Sideways</BrowseFlag>`),
		soapBody("Browse", `<ObjectID>0</ObjectID><BrowseFlag>BrowseMetadata</BrowseFlag><StartingIndex>-1</StartingIndex>`),
	}
	for _, body := range cases {
		rec, env := post(t, handler.ContentDirectory, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d for %s", rec.Code, body)
		}
		if env.Body.Fault.Detail.Error.Code != dlna.ErrorInvalidArgs {
			t.Fatalf("expected fault 402, got %d", env.Body.Fault.Detail.Error.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/ContentDirectory/control", strings.NewReader("<not xml"))
	rec := httptest.NewRecorder()
	handler.ContentDirectory(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed xml, got %d", rec.Code)
	}
}

func TestControlUnknownAction(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec, env := post(t, handler.ContentDirectory, soapBody("DestroyObject", `<ObjectID>0</ObjectID>`))
	if rec.Code != http.StatusBadRequest || env.Body.Fault.Detail.Error.Code != dlna.ErrorInvalidAction {
		t.Fatalf("expected invalid action fault, got %d %+v", rec.Code, env.Body.Fault)
	}

	rec, env = post(t, handler.AVTransport, soapBody("Play", `<InstanceID>0</InstanceID>`))
	if rec.Code != http.StatusBadRequest || env.Body.Fault.Detail.Error.Code != dlna.ErrorInvalidAction {
		t.Fatalf("expected AVTransport fault, got %d", rec.Code)
	}
}

func TestControlAuxiliaryActions(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec, _ := post(t, handler.ContentDirectory, soapBody("GetSystemUpdateID", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<Id>1</Id>") {
		t.Fatalf("unexpected GetSystemUpdateID response %s", rec.Body.String())
	}
	rec, _ = post(t, handler.ContentDirectory, soapBody("GetSortCapabilities", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<SortCaps></SortCaps>") {
		t.Fatalf("unexpected GetSortCapabilities response %s", rec.Body.String())
	}

	rec, _ = post(t, handler.ConnectionManager, soapBody("GetProtocolInfo", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http-get:*:video/x-matroska:*") {
		t.Fatalf("unexpected GetProtocolInfo response %s", rec.Body.String())
	}
	rec, _ = post(t, handler.ConnectionManager, soapBody("GetCurrentConnectionIDs", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<ConnectionIDs>0</ConnectionIDs>") {
		t.Fatalf("unexpected GetCurrentConnectionIDs response %s", rec.Body.String())
	}
	rec, _ = post(t, handler.ConnectionManager, soapBody("GetCurrentConnectionInfo", "<ConnectionID>7</ConnectionID>"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected fault for unknown connection, got %d", rec.Code)
	}
}

func TestSubscribe(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("SUBSCRIBE", "/ContentDirectory/event", nil)
	req.Header.Set("CALLBACK", "<http://192.168.1.9:4000/>")
	req.Header.Set("NT", "upnp:event")
	rec := httptest.NewRecorder()
	handler.Subscribe(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	sid := rec.Header().Get("SID")
	if !strings.HasPrefix(sid, "uuid:") || rec.Header().Get("TIMEOUT") != "Second-1800" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}

	renew := httptest.NewRequest("SUBSCRIBE", "/ContentDirectory/event", nil)
	renew.Header.Set("SID", sid)
	rec = httptest.NewRecorder()
	handler.Subscribe(rec, renew)
	if rec.Header().Get("SID") != sid {
		t.Fatalf("renewal should keep sid")
	}

	bad := httptest.NewRequest("SUBSCRIBE", "/ContentDirectory/event", nil)
	rec = httptest.NewRecorder()
	handler.Subscribe(rec, bad)
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", rec.Code)
	}

	unsub := httptest.NewRequest("UNSUBSCRIBE", "/ContentDirectory/event", nil)
	unsub.Header.Set("SID", sid)
	rec = httptest.NewRecorder()
	handler.Unsubscribe(rec, unsub)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected unsubscribe status %d", rec.Code)
	}
}
