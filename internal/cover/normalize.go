// Package cover turns raw cover image URLs into URLs that can be loaded safely.
package cover

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	insecurePrefix = "http://"
	securePrefix   = "https://"
)

// Normalize percent-encodes raw for use as a URL and upgrades http to https.
// Existing %XX escapes are kept as they are, so normalizing an already
// normalized URL returns an equal URL. It returns nil when raw is empty, is
// not valid UTF-8, or does not produce an absolute URL with a host.
func Normalize(raw string) *url.URL {
	if raw == "" || !utf8.ValidString(raw) {
		return nil
	}

	encoded := encode(raw)
	if len(encoded) >= len(insecurePrefix) && strings.EqualFold(encoded[:len(insecurePrefix)], insecurePrefix) {
		encoded = securePrefix + encoded[len(insecurePrefix):]
	}

	u, err := url.Parse(encoded)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// encode escapes every byte outside the query-allowed set.
func encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		case allowed(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

const upperHex = "0123456789ABCDEF"

func allowed(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!$&'()*+,-./:;=?@_~", c) >= 0
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
