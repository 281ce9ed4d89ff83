package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid URL")

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ParseAbsoluteURL accepts only URLs that carry a scheme and either a host or
// an opaque part, the way a browser's URL constructor does without a base.
func ParseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, ErrInvalidURL
	}
	if u.Host == "" && u.Opaque == "" && !strings.HasPrefix(u.Path, "/") {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// EnsureScheme prefixes http:// to bare hosts such as "example.com/page".
func EnsureScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}

// Hostname returns the host part of rawURL or "unknown".
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
