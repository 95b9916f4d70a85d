package util

import "strings"

// Join builds a flat storage key from non-empty parts separated by ':'.
// Empty parts are skipped so optional components (e.g. a missing season)
// never produce "::" gaps.
func Join(parts ...string) string {
	var b strings.Builder
	n := 0
	for _, p := range parts {
		if p == "" {
			continue
		}
		if n > 0 {
			b.WriteByte(':')
		}
		b.WriteString(p)
		n++
	}
	return b.String()
}

// GroupKey returns the batch key for an item: the group (plus season) when
// the item belongs to one, otherwise the item itself (plus season).
func GroupKey(id, group, season string) string {
	if group != "" {
		return Join(group, season)
	}
	return Join(id, season)
}
