package media

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectName builds "<folder>/<unix-ms>-<short-id>-<base>" so repeated uploads of
// one filename never collide. The base is reduced to a safe character set.
func objectName(folder, filename string, now time.Time) string {
	base := sanitize(filepath.Base(filename))
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8] + "-" + base
	folder = strings.Trim(sanitizePath(folder), "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

func sanitizePath(s string) string {
	parts := strings.Split(s, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, sanitize(p))
	}
	return strings.Join(kept, "/")
}
