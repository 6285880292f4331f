package core

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Object IDs with fixed meaning.
const (
	RootID       = "0"
	RootParentID = "-1"
)

// MediaItem is a shared file or directory derived from the filesystem.
type MediaItem struct {
	Path     string
	Name     string
	ObjectID string
	ParentID string
	IsDir    bool
	Format   Format
	Size     int64
	ModTime  time.Time
}

// Kind returns the media kind of a file item.
func (i MediaItem) Kind() MediaKind {
	return i.Format.Kind
}

// Title returns the display title derived from the file name.
func (i MediaItem) Title() string {
	if i.IsDir {
		return i.Name
	}
	return strings.TrimSuffix(i.Name, filepath.Ext(i.Name))
}

// Library is the immutable ordered list of shared folders.
type Library struct {
	folders []string
	skipped []string
}

// NewLibrary resolves folders to absolute, symlink-free paths and drops
// entries that do not exist or are not directories.
func NewLibrary(folders []string) (*Library, error) {
	lib := &Library{}
	seen := map[string]bool{}
	for _, folder := range folders {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			continue
		}
		resolved, err := resolveFolder(folder)
		if err != nil {
			lib.skipped = append(lib.skipped, folder)
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		lib.folders = append(lib.folders, resolved)
	}
	if len(lib.folders) == 0 {
		return nil, ErrNoFolders
	}
	return lib, nil
}

func resolveFolder(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", folder)
	}
	return resolved, nil
}

// Folders returns the shared folders in configured order.
func (l *Library) Folders() []string {
	return append([]string(nil), l.folders...)
}

// Skipped returns configured folders that could not be used.
func (l *Library) Skipped() []string {
	return append([]string(nil), l.skipped...)
}

// Root returns the folder that object ID "0" maps to.
func (l *Library) Root() string {
	return l.folders[0]
}

// Resolve maps an object ID to an absolute path under one shared folder.
// The owning folder is the first one where the ID round-trips.
func (l *Library) Resolve(objectID string) (string, error) {
	if objectID == RootID {
		return l.folders[0], nil
	}
	rel, err := decodeObjectID(objectID)
	if err != nil {
		return "", err
	}
	for _, folder := range l.folders {
		path := filepath.Join(folder, rel)
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		if !contains(folder, path) {
			continue
		}
		id, err := relativeID(folder, path)
		if err == nil && id == objectID {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, objectID)
}

// ObjectID returns the object ID for an absolute path under a shared folder.
func (l *Library) ObjectID(path string) (string, error) {
	path = filepath.Clean(path)
	for _, folder := range l.folders {
		if !contains(folder, path) {
			continue
		}
		id, err := relativeID(folder, path)
		if err != nil {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
}

// Stat returns the media item an object ID names.
func (l *Library) Stat(objectID string) (MediaItem, error) {
	path, err := l.Resolve(objectID)
	if err != nil {
		return MediaItem{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return MediaItem{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	item, ok := newItem(path, info, objectID)
	if !ok {
		return MediaItem{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	return item, nil
}

// List returns the sorted media-eligible children of a container.
func (l *Library) List(objectID string) ([]MediaItem, error) {
	dir, err := l.Resolve(objectID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	items := make([]MediaItem, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if isHidden(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.Type()&os.ModeSymlink != 0 && !l.containedAnywhere(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		item, ok := newItem(path, info, ChildID(objectID, name))
		if !ok {
			continue
		}
		items = append(items, item)
	}
	SortItems(items)
	return items, nil
}

// CountChildren returns the number of media-eligible entries directly in dir.
func (l *Library) CountChildren(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if isHidden(name) {
			continue
		}
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			path := filepath.Join(dir, name)
			if !l.containedAnywhere(path) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			count++
			continue
		}
		if _, ok := LookupFormat(name); ok {
			count++
		}
	}
	return count
}

func (l *Library) containedAnywhere(path string) bool {
	for _, folder := range l.folders {
		if contains(folder, path) {
			return true
		}
	}
	return false
}

func newItem(path string, info os.FileInfo, objectID string) (MediaItem, bool) {
	item := MediaItem{
		Path:     path,
		Name:     info.Name(),
		ObjectID: objectID,
		ParentID: ParentID(objectID),
		IsDir:    info.IsDir(),
		ModTime:  info.ModTime(),
	}
	if item.IsDir {
		return item, true
	}
	if !info.Mode().IsRegular() {
		return MediaItem{}, false
	}
	format, ok := LookupFormat(info.Name())
	if !ok {
		return MediaItem{}, false
	}
	item.Format = format
	item.Size = info.Size()
	return item, true
}

// SortItems orders directories first, then by case-insensitive name, then by
// exact name.
func SortItems(items []MediaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
}

// ParentID returns the object ID of the container holding objectID.
func ParentID(objectID string) string {
	if objectID == RootID || objectID == "" {
		return RootParentID
	}
	idx := strings.LastIndex(objectID, "/")
	if idx < 0 {
		return RootID
	}
	return objectID[:idx]
}

// ChildID returns the object ID of name inside the container parentID.
func ChildID(parentID string, name string) string {
	if parentID == RootID || parentID == "" {
		return url.PathEscape(name)
	}
	return parentID + "/" + url.PathEscape(name)
}

// EncodeRelative escapes a slash separated relative path into an object ID.
func EncodeRelative(rel string) string {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return RootID
	}
	segments := strings.Split(rel, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func relativeID(folder string, path string) (string, error) {
	rel, err := filepath.Rel(folder, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return EncodeRelative(rel), nil
}

func decodeObjectID(objectID string) (string, error) {
	if strings.TrimSpace(objectID) == "" {
		return "", fmt.Errorf("%w: empty object id", ErrNotFound)
	}
	segments := strings.Split(objectID, "/")
	for i, segment := range segments {
		name, err := url.PathUnescape(segment)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		if name == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, objectID)
		}
		if name == "" || isHidden(name) || strings.ContainsAny(name, "/\x00") || strings.ContainsRune(name, filepath.Separator) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, objectID)
		}
		segments[i] = name
	}
	return filepath.Join(segments...), nil
}

func contains(folder string, path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(folder, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
