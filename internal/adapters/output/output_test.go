package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	contentdirectory "github.com/mikey-austin/media_share/internal/modules/content_directory"
	"github.com/mikey-austin/media_share/pkg/dlna"
)

func sampleResult() (contentdirectory.BrowseRequest, contentdirectory.BrowseResult) {
	doc := dlna.NewDIDLLite()
	doc.Containers = append(doc.Containers, dlna.Container{
		Object:     dlna.Object{ID: "B", ParentID: "0", Title: "B", Class: dlna.ClassStorageFolder},
		ChildCount: 2,
	})
	doc.Items = append(doc.Items, dlna.Item{
		Object: dlna.Object{ID: "A.mkv", ParentID: "0", Title: "A", Class: dlna.ClassVideoItem},
		Res:    []dlna.Resource{{Size: 500000, Duration: "0:02:00.000", URL: "http://192.168.1.5:8200/A.mkv"}},
	})
	req := contentdirectory.BrowseRequest{ObjectID: "0", Flag: contentdirectory.BrowseDirectChildren}
	return req, contentdirectory.BrowseResult{NumberReturned: 2, TotalMatches: 2, Document: doc}
}

func TestNewBrowseOutput(t *testing.T) {
	out := NewBrowseOutput(sampleResult())
	if out.ObjectID != "0" || out.BrowseFlag != "BrowseDirectChildren" || len(out.Entries) != 2 {
		t.Fatalf("unexpected output %+v", out)
	}
	if !out.Entries[0].Container || out.Entries[0].ChildCount != 2 {
		t.Fatalf("expected container first, got %+v", out.Entries[0])
	}
	item := out.Entries[1]
	if item.Size != 500000 || item.Duration != "0:02:00.000" || item.URL != "http://192.168.1.5:8200/A.mkv" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestJSONPrinter(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, true).Print(NewBrowseOutput(sampleResult())); err != nil {
		t.Fatalf("print: %v", err)
	}
	var decoded BrowseOutput
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TotalMatches != 2 || decoded.Entries[1].Title != "A" {
		t.Fatalf("unexpected decoded output %+v", decoded)
	}
}

func TestHumanPrinter(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, false).Print(NewBrowseOutput(sampleResult())); err != nil {
		t.Fatalf("print: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"TITLE", "A.mkv", "488.3 KiB", "2 entries", "2 of 2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}

	buf.Reset()
	req, _ := sampleResult()
	if err := New(&buf, false).Print(BrowseOutput{ObjectID: req.ObjectID}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "no entries") {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}

func TestHumanSize(t *testing.T) {
	cases := map[int64]string{0: "0 B", 1023: "1023 B", 1024: "1.0 KiB", 5 * 1024 * 1024: "5.0 MiB"}
	for n, want := range cases {
		if got := humanSize(n); got != want {
			t.Fatalf("%d: expected %q, got %q", n, want, got)
		}
	}
}
