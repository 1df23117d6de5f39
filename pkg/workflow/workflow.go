// Package workflow parses status-normalization configuration and maps raw
// Jira status names onto canonical workflow groups.
package workflow

import (
	"sort"
	"strings"
)

// Markers names the lifecycle roles of canonical groups.
type Markers struct {
	// First is the group considered the workflow's start.
	First string

	// Last is the group considered completion. Empty means no terminal
	// group is known; cycle times then report "not completed".
	Last string

	// Implementation is the group considered "work started".
	Implementation string
}

// DefaultClosedVocabulary lists group names recognized as terminal when no
// explicit <Last> marker is configured. Matching is case-insensitive.
var DefaultClosedVocabulary = []string{"Done", "Closed", "Resolved", "Complete", "Completed"}

// Config is an immutable mapping from raw status names to canonical groups,
// plus optional lifecycle markers. The zero value (or a nil *Config) is a
// valid identity mapping.
type Config struct {
	aliases   map[string]string
	canonical map[string]struct{}
	markers   Markers

	// closedVocabulary overrides DefaultClosedVocabulary when non-nil.
	closedVocabulary []string
}

// GroupFor returns the canonical group for a raw status name. Lookup is
// total: unmapped names resolve to themselves, and mapping an
// already-canonical name returns it unchanged.
func (c *Config) GroupFor(status string) string {
	if c == nil {
		return status
	}

	if group, ok := c.aliases[status]; ok {
		return group
	}

	return status
}

// Groups returns the declared canonical group names in sorted order.
func (c *Config) Groups() []string {
	if c == nil {
		return nil
	}

	groups := make([]string, 0, len(c.canonical))
	for g := range c.canonical {
		groups = append(groups, g)
	}

	sort.Strings(groups)

	return groups
}

// Markers returns the explicitly configured lifecycle markers. Unset roles
// are empty strings; ResolveMarkers fills them heuristically.
func (c *Config) Markers() Markers {
	if c == nil {
		return Markers{}
	}

	return c.markers
}

// SetClosedVocabulary overrides the terminal-group vocabulary used by
// ResolveMarkers when no <Last> marker is configured.
func (c *Config) SetClosedVocabulary(vocab []string) {
	c.closedVocabulary = vocab
}

// ResolveMarkers fills unset markers from batch observations: a missing
// First becomes earliestGroup (the group of the earliest transition seen
// across the batch), and a missing Last becomes the first observed group
// whose name matches the closed vocabulary. A Last that cannot be resolved
// stays empty; downstream cycle-time calculations then report an explicit
// not-completed state instead of guessing.
func (c *Config) ResolveMarkers(earliestGroup string, observedGroups []string) Markers {
	m := c.Markers()

	if m.First == "" {
		m.First = earliestGroup
	}

	if m.Last == "" {
		m.Last = matchClosedGroup(c.vocabulary(), c.allGroups(observedGroups))
	}

	return m
}

func (c *Config) vocabulary() []string {
	if c != nil && c.closedVocabulary != nil {
		return c.closedVocabulary
	}

	return DefaultClosedVocabulary
}

// allGroups merges declared canonical groups with groups observed in the
// batch (self-mapped statuses are never declared but still count).
func (c *Config) allGroups(observed []string) []string {
	seen := make(map[string]struct{}, len(observed))
	merged := make([]string, 0, len(observed))

	for _, g := range c.Groups() {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}

			merged = append(merged, g)
		}
	}

	for _, g := range observed {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}

			merged = append(merged, g)
		}
	}

	sort.Strings(merged)

	return merged
}

func matchClosedGroup(vocab, groups []string) string {
	for _, g := range groups {
		for _, v := range vocab {
			if strings.EqualFold(g, v) {
				return g
			}
		}
	}

	return ""
}
