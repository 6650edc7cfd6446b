package fileutil

import (
	"net/url"
	"path"
	"path/filepath"
)

// Join is a url.URL scheme-safe join method. This allows for joining of local
// files as well as URI's.
func Join(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}

	u, err := url.Parse(parts[0])
	if err != nil || u.Scheme == "" {
		return filepath.Join(parts...)
	}

	elems := append([]string{u.Path}, parts[1:]...)
	u.Path = path.Join(elems...)
	return u.String()
}

// Base returns the last element of a local path or URI
func Base(p string) string {
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		return path.Base(u.Path)
	}
	return filepath.Base(p)
}
