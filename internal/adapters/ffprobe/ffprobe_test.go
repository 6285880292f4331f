package ffprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   func(args []string) ([]byte, error)
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.out(args)
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func tempMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "A.mkv")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestProbeDurationCaches(t *testing.T) {
	runner := &fakeRunner{out: func([]string) ([]byte, error) {
		return []byte("120.500000\n"), nil
	}}
	prober := NewProber(nil, Config{}, runner.run)
	path := tempMedia(t)

	for i := 0; i < 3; i++ {
		d, ok := prober.ProbeDuration(context.Background(), path)
		if !ok || d != 120500*time.Millisecond {
			t.Fatalf("unexpected duration %v %v", d, ok)
		}
	}
	if runner.count() != 1 {
		t.Fatalf("expected one ffprobe run, got %d", runner.count())
	}
	if runner.calls[0][0] != "ffprobe" || runner.calls[0][len(runner.calls[0])-1] != path {
		t.Fatalf("unexpected command %v", runner.calls[0])
	}
}

func TestProbeDurationUnknown(t *testing.T) {
	runner := &fakeRunner{out: func([]string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}
	prober := NewProber(nil, Config{}, runner.run)
	path := tempMedia(t)
	if _, ok := prober.ProbeDuration(context.Background(), path); ok {
		t.Fatalf("expected unknown duration")
	}
	if _, ok := prober.ProbeDuration(context.Background(), path); ok {
		t.Fatalf("expected cached unknown duration")
	}
	if runner.count() != 1 {
		t.Fatalf("expected negative result cached, got %d runs", runner.count())
	}
	if _, ok := prober.ProbeDuration(context.Background(), filepath.Join(t.TempDir(), "missing.mkv")); ok {
		t.Fatalf("expected unknown for missing file")
	}

	var nilProber *Prober
	if _, ok := nilProber.ProbeDuration(context.Background(), path); ok {
		t.Fatalf("nil prober should report unknown")
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]bool{
		"12.0\n":   true,
		"N/A\n":    false,
		"":         false,
		"0.000000": false,
	}
	for in, ok := range cases {
		if _, got := parseDuration([]byte(in)); got != ok {
			t.Fatalf("%q: expected %v", in, ok)
		}
	}
}

func TestExtractFrameRetriesShortClips(t *testing.T) {
	runner := &fakeRunner{out: func(args []string) ([]byte, error) {
		if args[2] == "-ss" {
			return nil, nil
		}
		return []byte{0xff, 0xd8}, nil
	}}
	ex := NewExtractor(nil, Config{}, runner.run)
	out, err := ex.ExtractFrame(context.Background(), "/a.mkv", true)
	if err != nil || len(out) != 2 {
		t.Fatalf("unexpected frame %v %v", out, err)
	}
	if runner.count() != 2 {
		t.Fatalf("expected retry without seek, got %d", runner.count())
	}
	if !strings.Contains(strings.Join(runner.calls[0], " "), "scale=320:-2") {
		t.Fatalf("expected default width in %v", runner.calls[0])
	}

	empty := NewExtractor(nil, Config{}, func(context.Context, string, ...string) ([]byte, error) { return nil, nil })
	if _, err := empty.ExtractFrame(context.Background(), "/a.jpg", false); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
}
