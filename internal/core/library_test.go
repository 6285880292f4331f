package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	lib, err := NewLibrary([]string{dir})
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	return lib, lib.Root()
}

func TestNewLibraryRequiresExistingFolder(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := NewLibrary([]string{missing, ""}); !errors.Is(err, ErrNoFolders) {
		t.Fatalf("expected ErrNoFolders, got %v", err)
	}

	dir := t.TempDir()
	lib, err := NewLibrary([]string{missing, dir, dir})
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	if len(lib.Folders()) != 1 {
		t.Fatalf("expected duplicate folder dropped, got %v", lib.Folders())
	}
	if len(lib.Skipped()) != 1 || lib.Skipped()[0] != missing {
		t.Fatalf("expected missing folder skipped, got %v", lib.Skipped())
	}
}

func TestObjectIDRoundTrip(t *testing.T) {
	lib, root := newTestLibrary(t)
	files := []string{
		"A.mkv",
		"B/track one.mp3",
		"B/C/100% real.flac",
		"Ünïcode/ß#?.jpg",
	}
	for _, name := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), 10)
	}

	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		id, err := lib.ObjectID(path)
		if err != nil {
			t.Fatalf("object id %s: %v", name, err)
		}
		got, err := lib.Resolve(id)
		if err != nil {
			t.Fatalf("resolve %s (%s): %v", name, id, err)
		}
		if got != path {
			t.Fatalf("round trip mismatch: %s != %s", got, path)
		}
	}

	id, err := lib.ObjectID(root)
	if err != nil || id != RootID {
		t.Fatalf("expected root id, got %q %v", id, err)
	}
	if id := EncodeRelative("B/track one.mp3"); id != "B/track%20one.mp3" {
		t.Fatalf("unexpected encoding %q", id)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, filepath.Join(root, "A.mkv"), 10)
	writeFile(t, filepath.Join(root, ".hidden.mkv"), 10)

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.mkv"), 10)
	if err := os.Symlink(filepath.Join(outside, "secret.mkv"), filepath.Join(root, "link.mkv")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	cases := []struct {
		id  string
		err error
	}{
		{"../secret.mkv", ErrOutsideRoot},
		{"B/../../secret.mkv", ErrOutsideRoot},
		{"%2E%2E/secret.mkv", ErrOutsideRoot},
		{"link.mkv", ErrNotFound},
		{".hidden.mkv", ErrNotFound},
		{"missing.mkv", ErrNotFound},
		{"A%2Emkv", ErrNotFound},
		{"", ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := lib.Resolve(tc.id); !errors.Is(err, tc.err) {
			t.Fatalf("resolve %q: expected %v got %v", tc.id, tc.err, err)
		}
	}
}

func TestResolveAcrossFolders(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(second, "only-second.mp3"), 5)
	lib, err := NewLibrary([]string{first, second})
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	path, err := lib.Resolve("only-second.mp3")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Dir(path) != lib.Folders()[1] {
		t.Fatalf("expected second folder, got %s", path)
	}
	root, err := lib.Resolve(RootID)
	if err != nil || root != lib.Folders()[0] {
		t.Fatalf("expected root to map to first folder, got %s %v", root, err)
	}
}

func TestListSortsAndFilters(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, filepath.Join(root, "b.mp3"), 1)
	writeFile(t, filepath.Join(root, "A.mkv"), 1)
	writeFile(t, filepath.Join(root, "a.mkv"), 1)
	writeFile(t, filepath.Join(root, "notes.txt"), 1)
	writeFile(t, filepath.Join(root, ".secret.mp3"), 1)
	writeFile(t, filepath.Join(root, "zdir", "x.mp3"), 1)
	writeFile(t, filepath.Join(root, "Adir", "y.txt"), 1)

	items, err := lib.List(RootID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	expected := []string{"Adir", "zdir", "A.mkv", "a.mkv", "b.mp3"}
	if len(names) != len(expected) {
		t.Fatalf("unexpected listing %v", names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("unexpected order %v", names)
		}
	}
	if items[0].ParentID != RootID || items[0].ObjectID != "Adir" {
		t.Fatalf("unexpected ids %+v", items[0])
	}

	sub, err := lib.List("zdir")
	if err != nil || len(sub) != 1 {
		t.Fatalf("expected one child in zdir, got %v %v", sub, err)
	}
	if sub[0].ObjectID != "zdir/x.mp3" || sub[0].ParentID != "zdir" || sub[0].Kind() != KindAudio {
		t.Fatalf("unexpected child %+v", sub[0])
	}

	if got := lib.CountChildren(filepath.Join(root, "Adir")); got != 0 {
		t.Fatalf("expected no eligible children, got %d", got)
	}
	if got := lib.CountChildren(root); got != 5 {
		t.Fatalf("expected 5 eligible children, got %d", got)
	}
}

func TestParentID(t *testing.T) {
	cases := map[string]string{
		RootID:  RootParentID,
		"A.mkv": RootID,
		"B/C":   "B",
		"B/C/d": "B/C",
	}
	for id, expected := range cases {
		if got := ParentID(id); got != expected {
			t.Fatalf("parent of %q: expected %q got %q", id, expected, got)
		}
	}
}

func TestStatUnsupported(t *testing.T) {
	lib, root := newTestLibrary(t)
	writeFile(t, filepath.Join(root, "notes.txt"), 1)
	if _, err := lib.Stat("notes.txt"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	item, err := lib.Stat(RootID)
	if err != nil || !item.IsDir || item.ParentID != RootParentID {
		t.Fatalf("unexpected root item %+v %v", item, err)
	}
}

func TestLookupFormat(t *testing.T) {
	f, ok := LookupFormat("Movie.MKV")
	if !ok || f.Kind != KindVideo || f.MimeType != "video/x-matroska" || f.Ext != ".mkv" {
		t.Fatalf("unexpected format %+v", f)
	}
	if _, ok := LookupFormat("readme.txt"); ok {
		t.Fatalf("txt should be unsupported")
	}
	if KindAudio.Class() != "object.item.audioItem.musicTrack" {
		t.Fatalf("unexpected audio class")
	}
	img, _ := LookupFormat("a.jpg")
	if img.Features(true).SupportTimeSeek || !img.Features(true).Interactive {
		t.Fatalf("images are interactive without time seek")
	}
	formats := Formats()
	for i := 1; i < len(formats); i++ {
		if formats[i-1].Ext >= formats[i].Ext {
			t.Fatalf("formats not sorted")
		}
	}
}

func TestNewDeviceIdentity(t *testing.T) {
	a := NewDeviceIdentity("host-a", "")
	b := NewDeviceIdentity("host-a", "Living Room")
	c := NewDeviceIdentity("host-b", "")
	if a.UUID != b.UUID {
		t.Fatalf("uuid should depend only on hostname")
	}
	if a.UUID == c.UUID {
		t.Fatalf("uuid should differ per host")
	}
	if a.FriendlyName != "Media Share (host-a)" || b.FriendlyName != "Living Room" {
		t.Fatalf("unexpected names %q %q", a.FriendlyName, b.FriendlyName)
	}
}
