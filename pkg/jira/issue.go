// Package jira models Jira issue records and provides offline snapshot
// loading, live REST retrieval, and snapshot caching.
package jira

import (
	"errors"
	"fmt"
	"time"
)

// changelogTimeLayout is the timestamp format Jira emits in changelogs and
// issue fields, e.g. 2023-01-02T14:00:00.000+0000.
const changelogTimeLayout = "2006-01-02T15:04:05.000-0700"

// ErrBadTimestamp indicates a timestamp that matches neither the Jira
// changelog format nor RFC 3339.
var ErrBadTimestamp = errors.New("unrecognized timestamp format")

// statusField is the changelog item field name for status transitions.
const statusField = "status"

// Issue is one raw Jira issue record. The changelog may appear at the top
// level (REST API with expand=changelog) or nested under fields (some
// exports); Histories normalizes both shapes.
type Issue struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Fields    Fields     `json:"fields"`
	Changelog *Changelog `json:"changelog,omitempty"`
}

// Fields holds the issue field container.
type Fields struct {
	Summary        string       `json:"summary"`
	Created        string       `json:"created"`
	ResolutionDate string       `json:"resolutiondate,omitempty"`
	Status         *NamedField  `json:"status,omitempty"`
	IssueType      *NamedField  `json:"issuetype,omitempty"`
	Resolution     *NamedField  `json:"resolution,omitempty"`
	Priority       *NamedField  `json:"priority,omitempty"`
	Components     []NamedField `json:"components,omitempty"`
	Changelog      *Changelog   `json:"changelog,omitempty"`
}

// NamedField is any Jira object referenced only by display name.
type NamedField struct {
	Name string `json:"name"`
}

// Changelog is the issue change history container.
type Changelog struct {
	Histories []History `json:"histories"`
}

// History is one changelog entry: a timestamp plus the set of field changes
// recorded at that instant.
type History struct {
	Created string        `json:"created"`
	Items   []HistoryItem `json:"items"`
}

// HistoryItem is a single field change within a history entry.
type HistoryItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// IsStatusChange reports whether the item records a status transition.
func (it HistoryItem) IsStatusChange() bool {
	return it.Field == statusField
}

// Histories returns the changelog entries regardless of which of the two
// supported locations carries them. Returns nil when no changelog exists.
func (i *Issue) Histories() []History {
	if i.Changelog != nil {
		return i.Changelog.Histories
	}

	if i.Fields.Changelog != nil {
		return i.Fields.Changelog.Histories
	}

	return nil
}

// StatusName returns the current status display name, or "" when absent.
func (i *Issue) StatusName() string {
	if i.Fields.Status == nil {
		return ""
	}

	return i.Fields.Status.Name
}

// CreatedTime parses the issue creation timestamp.
func (i *Issue) CreatedTime() (time.Time, error) {
	return ParseTime(i.Fields.Created)
}

// ParseTime parses a Jira timestamp, accepting both the changelog format
// (2006-01-02T15:04:05.000+0000) and RFC 3339.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(changelogTimeLayout, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}
