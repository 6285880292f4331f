package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata is the subset of embedded audio tags exposed in DIDL-Lite.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Year   int
}

// Reader reads embedded tags from audio files.
type Reader struct{}

// Read returns tags for path, falling back to the file and folder names.
func (Reader) Read(path string) Metadata {
	meta, err := readTags(path)
	fallback := fallbackMetadata(path)
	if err != nil {
		return fallback
	}
	if meta.Title == "" {
		meta.Title = fallback.Title
	}
	if meta.Artist == "" {
		meta.Artist = fallback.Artist
	}
	if meta.Album == "" {
		meta.Album = fallback.Album
	}
	return meta
}

func readTags(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	metadata, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, err
	}
	artist := strings.TrimSpace(metadata.Artist())
	if artist == "" {
		artist = strings.TrimSpace(metadata.AlbumArtist())
	}
	return Metadata{
		Title:  strings.TrimSpace(metadata.Title()),
		Artist: artist,
		Album:  strings.TrimSpace(metadata.Album()),
		Year:   metadata.Year(),
	}, nil
}

func fallbackMetadata(path string) Metadata {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(name, " - ", 2)
	meta := Metadata{}
	if len(parts) == 2 {
		meta.Artist = strings.TrimSpace(parts[0])
		meta.Title = strings.TrimSpace(parts[1])
	} else {
		meta.Title = name
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		meta.Album = filepath.Base(dir)
	}
	return meta
}
