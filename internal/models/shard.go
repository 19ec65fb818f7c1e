package models

import (
	"strconv"
	"strings"
)

// ShardWidth is the maximum number of id characters per path segment.
// Keeping directory fan-out to at most 10^4 entries per level keeps the
// image tree navigable and filesystem-friendly.
const ShardWidth = 4

// ShardIDPath converts a flat numeric identifier string into its
// canonical sharded path form, e.g. "123456789" -> "1234/5678/9".
func ShardIDPath(flat string) string {
	if len(flat) <= ShardWidth {
		return flat
	}

	var b strings.Builder
	for i, ch := range flat {
		if i > 0 && i%ShardWidth == 0 {
			b.WriteByte('/')
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// NeedsShardRedirect reports whether an id path segment is a flat form
// that must be redirected to its canonical sharded form. Already-sharded
// paths and short ids are canonical as-is.
func NeedsShardRedirect(idPath string) bool {
	flat := strings.ReplaceAll(idPath, "/", "")
	return len(flat) > ShardWidth && idPath == flat
}

// ParseImageID parses an id path segment (flat or sharded) into the
// integer image identifier.
func ParseImageID(idPath string) (int64, error) {
	flat := strings.ReplaceAll(idPath, "/", "")
	id, err := strconv.ParseInt(flat, 10, 64)
	if err != nil || id <= 0 {
		return 0, InvalidIdentifierError{Segment: idPath}
	}
	return id, nil
}

// IDPath returns the canonical sharded path for an image id.
func IDPath(id int64) string {
	return ShardIDPath(strconv.FormatInt(id, 10))
}
