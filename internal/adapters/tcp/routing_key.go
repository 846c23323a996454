package tcp

import (
	"bytes"
	"net/url"
	"strings"
)

// RoomPathPrefix is the request line prefix of a room join request.
const RoomPathPrefix = "GET /room/"

// ExtractRoutingKey reports whether prefix, the first bytes of a raw request,
// is a room join request and returns the target room name.
// "GET /room/Office HTTP/1.1" yields "Office".
func ExtractRoutingKey(prefix []byte) (string, bool) {
	if !bytes.HasPrefix(prefix, []byte(RoomPathPrefix)) {
		return "", false
	}
	line := string(prefix)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	end := strings.Index(line, " HTTP")
	if end < 0 {
		return "", false
	}
	target := line[:end]
	if q := strings.IndexByte(target, '?'); q >= 0 {
		target = target[:q]
	}
	name := strings.TrimSpace(target[strings.LastIndexByte(target, '/')+1:])
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" {
		return "", false
	}
	return name, true
}
