package core

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikey-austin/media_share/pkg/dlna"
)

// MediaKind classifies servable files.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindVideo
	KindAudio
	KindImage
)

func (k MediaKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Class returns the UPnP object class for items of this kind.
func (k MediaKind) Class() string {
	switch k {
	case KindVideo:
		return dlna.ClassVideoItem
	case KindAudio:
		return dlna.ClassAudioItem
	case KindImage:
		return dlna.ClassImageItem
	default:
		return ""
	}
}

// Format describes how one file extension is served.
type Format struct {
	Ext      string
	MimeType string
	Kind     MediaKind
	Profile  string
}

var formats = map[string]Format{
	".mkv":  {MimeType: "video/x-matroska", Kind: KindVideo},
	".mp4":  {MimeType: "video/mp4", Kind: KindVideo},
	".m4v":  {MimeType: "video/mp4", Kind: KindVideo},
	".mov":  {MimeType: "video/quicktime", Kind: KindVideo},
	".avi":  {MimeType: "video/x-msvideo", Kind: KindVideo},
	".webm": {MimeType: "video/webm", Kind: KindVideo},
	".wmv":  {MimeType: "video/x-ms-wmv", Kind: KindVideo},
	".flv":  {MimeType: "video/x-flv", Kind: KindVideo},
	".ts":   {MimeType: "video/mp2t", Kind: KindVideo},
	".mpg":  {MimeType: "video/mpeg", Kind: KindVideo},
	".mpeg": {MimeType: "video/mpeg", Kind: KindVideo},
	".mp3":  {MimeType: "audio/mpeg", Kind: KindAudio, Profile: "MP3"},
	".flac": {MimeType: "audio/flac", Kind: KindAudio},
	".ogg":  {MimeType: "audio/ogg", Kind: KindAudio},
	".opus": {MimeType: "audio/ogg", Kind: KindAudio},
	".m4a":  {MimeType: "audio/mp4", Kind: KindAudio, Profile: "AAC_ISO"},
	".aac":  {MimeType: "audio/aac", Kind: KindAudio, Profile: "AAC_ADTS"},
	".wav":  {MimeType: "audio/wav", Kind: KindAudio},
	".wma":  {MimeType: "audio/x-ms-wma", Kind: KindAudio},
	".jpg":  {MimeType: "image/jpeg", Kind: KindImage, Profile: "JPEG_LRG"},
	".jpeg": {MimeType: "image/jpeg", Kind: KindImage, Profile: "JPEG_LRG"},
	".png":  {MimeType: "image/png", Kind: KindImage, Profile: "PNG_LRG"},
	".gif":  {MimeType: "image/gif", Kind: KindImage},
	".webp": {MimeType: "image/webp", Kind: KindImage},
	".bmp":  {MimeType: "image/bmp", Kind: KindImage},
}

// LookupFormat returns the format for a file name by extension.
func LookupFormat(name string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := formats[ext]
	if !ok {
		return Format{}, false
	}
	f.Ext = ext
	return f, true
}

// Formats returns every served format ordered by extension.
func Formats() []Format {
	out := make([]Format, 0, len(formats))
	for ext, f := range formats {
		f.Ext = ext
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ext < out[j].Ext
	})
	return out
}

// Features returns the DLNA content features for the format.
func (f Format) Features(seekable bool) dlna.ContentFeatures {
	return dlna.ContentFeatures{
		ProfileName:     f.Profile,
		SupportRange:    true,
		SupportTimeSeek: seekable && f.Kind != KindImage,
		Interactive:     f.Kind == KindImage,
	}
}

// ProtocolInfo returns the protocolInfo string advertised for the format.
func (f Format) ProtocolInfo(seekable bool) string {
	return dlna.ProtocolInfo(f.MimeType, f.Features(seekable))
}
