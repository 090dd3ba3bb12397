package graph

import (
	"sort"
	"strconv"
	"strings"
)

// OrderVersions orders version chain members oldest first by following the
// later-version pointers backwards from the tail of the chain.
//
// Version labels are free-form and are never used for ordering. When the
// chain is broken the walk stops at the gap and complete is false; entries
// past the gap are omitted. Without a tail no order can be derived and the
// result is empty.
func OrderVersions(entries []VersionOverview) (ordered []VersionOverview, complete bool) {
	unique := dedupeVersions(entries)
	if len(unique) == 0 {
		return nil, true
	}

	var tails []VersionOverview
	for _, v := range unique {
		if v.LaterVersion == "" {
			tails = append(tails, v)
		}
	}
	if len(tails) == 0 {
		return nil, false
	}
	sort.Slice(tails, func(i, j int) bool { return tails[i].ID < tails[j].ID })

	byLater := map[string]VersionOverview{}
	for _, v := range unique {
		if v.LaterVersion == "" {
			continue
		}
		if existing, ok := byLater[v.LaterVersion]; !ok || v.ID < existing.ID {
			byLater[v.LaterVersion] = v
		}
	}

	current := tails[0]
	seen := map[string]bool{current.ID: true}
	chain := []VersionOverview{current}
	for {
		prev, ok := byLater[current.ID]
		if !ok || seen[prev.ID] {
			break
		}
		seen[prev.ID] = true
		chain = append(chain, prev)
		current = prev
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, len(chain) == len(unique)
}

func dedupeVersions(entries []VersionOverview) []VersionOverview {
	seen := map[string]bool{}
	out := make([]VersionOverview, 0, len(entries))
	for _, v := range entries {
		if v.ID == "" || seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

// CompareVersions compares dotted version labels segment by segment.
// Numeric segments compare numerically, other segments lexically, and
// missing segments count as zero. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimSpace(a), ".")
	bs := strings.Split(strings.TrimSpace(b), ".")
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		x, y := segment(as, i), segment(bs, i)
		xn, xerr := strconv.Atoi(x)
		yn, yerr := strconv.Atoi(y)
		if xerr == nil && yerr == nil {
			if xn != yn {
				if xn < yn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func segment(parts []string, i int) string {
	if i >= len(parts) || parts[i] == "" {
		return "0"
	}
	return parts[i]
}
