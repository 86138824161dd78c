package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type ContentType string

const (
	ContentTypeHTML   ContentType = "text/html"
	ContentTypeBinary ContentType = "application/octet-stream"
	ContentTypeIcon   ContentType = "image/x-icon"
)

var contentTypes = map[string]ContentType{
	".html": ContentTypeHTML,
	".htm":  ContentTypeHTML,
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".png":  "image/png",
	".jpg":  "image/jpg",
	".jpeg": "image/jpeg",
	".ico":  ContentTypeIcon,
}

// ContentTypeFor looks the file suffix up in a fixed table. Matching is
// case-sensitive and the file contents are never inspected.
func ContentTypeFor(name string) ContentType {
	if ct, ok := contentTypes[path.Ext(name)]; ok {
		return ct
	}
	return ContentTypeBinary
}

// IsText reports whether bodies of this type are served line by line.
func (ct ContentType) IsText() bool {
	return strings.HasPrefix(string(ct), "text/") || ct == ContentTypeBinary
}

type Resolution struct {
	Target      string // sanitized request target
	Path        string // filesystem path
	Exists      bool   // Path names a regular file
	Size        int64
	ContentType ContentType
}

type ResourceResolver struct {
	root        string
	defaultPage string
}

func NewResourceResolver(root, defaultPage string) *ResourceResolver {
	return &ResourceResolver{root: root, defaultPage: defaultPage}
}

// Sanitize strips literal "/../" segments until none are left. Percent
// encoded sequences are not decoded and so pass through untouched.
func Sanitize(target string) string {
	for strings.Contains(target, "/../") {
		target = strings.ReplaceAll(target, "/../", "/")
	}
	return target
}

// escapes reports a target that could leave the root: one not starting
// with '/', which would extend the root's own name, or one with a ".."
// segment the literal filter cannot see, such as a trailing "/..".
func escapes(target string) bool {
	if !strings.HasPrefix(target, "/") {
		return true
	}
	for _, seg := range strings.Split(target, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func (rr *ResourceResolver) Resolve(target string) Resolution {
	res := Resolution{Target: Sanitize(target)}
	if res.Target == "/" {
		res.Path = rr.defaultPage
	} else {
		res.Path = rr.root + filepath.FromSlash(res.Target)
	}
	res.ContentType = ContentTypeFor(res.Path)
	if escapes(res.Target) {
		return res
	}

	fi, err := os.Stat(res.Path)
	if err == nil && fi.Mode().IsRegular() {
		res.Exists = true
		res.Size = fi.Size()
	}
	return res
}

// ReadFile returns the resource bytes. Textual types are re-joined line by
// line, each line ending in a single '\n'.
func (res Resolution) ReadFile() ([]byte, error) {
	if !res.Exists {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, res.Target)
	}
	b, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceRead, err)
	}
	if res.ContentType.IsText() {
		b = joinLines(b)
	}
	return b, nil
}

// joinLines treats "\r\n", "\r" and "\n" alike as line ends and rewrites
// each as "\n". A final unterminated line gets one appended.
func joinLines(b []byte) []byte {
	out := make([]byte, 0, len(b)+1)
	for i := 0; i < len(b); i++ {
		switch c := b[i]; c {
		case '\r':
			if i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			out = append(out, '\n')
		default:
			out = append(out, c)
		}
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
