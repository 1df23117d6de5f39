package workflow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for invalid line shapes; ConfigError wraps them with the
// line number and text.
var (
	// ErrMarkerEmptyGroup indicates a marker line with no group name.
	ErrMarkerEmptyGroup = errors.New("marker has no group name")
	// ErrMappingEmptyStatus indicates a simple mapping with no raw status.
	ErrMappingEmptyStatus = errors.New("mapping has no raw status name")
	// ErrMappingEmptyGroup indicates a simple mapping with no target group.
	ErrMappingEmptyGroup = errors.New("mapping has no canonical group name")
	// ErrDeclarationEmptyGroup indicates a group declaration with no name.
	ErrDeclarationEmptyGroup = errors.New("group declaration has no canonical name")
)

const (
	markerFirst          = "<First>"
	markerLast           = "<Last>"
	markerImplementation = "<Implementation>"

	simpleSeparator = "->"
	fullSeparator   = ":"
	commentPrefix   = "#"

	simpleSplitParts = 2
)

// ConfigError reports an invalid workflow configuration with the offending
// line. A broken config would silently mis-normalize every issue, so parsing
// fails loudly instead of skipping lines.
type ConfigError struct {
	Line   int
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("workflow config line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Parse reads a workflow configuration. Three line shapes are accepted and
// may be freely mixed within one file:
//
//	Raw Status -> Canonical Group     simple mapping, one per line
//	Canonical:Alias1:Alias2           full format group declaration
//	<First>Group                      lifecycle marker (<Last>, <Implementation>)
//
// Blank lines and lines starting with # are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{
		aliases:   make(map[string]string),
		canonical: make(map[string]struct{}),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		var err error

		switch {
		case strings.HasPrefix(line, "<"):
			err = cfg.parseMarker(line)
		case strings.Contains(line, simpleSeparator):
			err = cfg.parseSimple(line)
		default:
			err = cfg.parseFull(line)
		}

		if err != nil {
			return nil, &ConfigError{Line: lineNo, Text: line, Reason: err.Error()}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read workflow config: %w", err)
	}

	if err := cfg.validateMarkers(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseFile loads a workflow configuration from disk.
func ParseFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func (c *Config) parseMarker(line string) error {
	var role *string

	var rest string

	switch {
	case strings.HasPrefix(line, markerFirst):
		role, rest = &c.markers.First, strings.TrimPrefix(line, markerFirst)
	case strings.HasPrefix(line, markerLast):
		role, rest = &c.markers.Last, strings.TrimPrefix(line, markerLast)
	case strings.HasPrefix(line, markerImplementation):
		role, rest = &c.markers.Implementation, strings.TrimPrefix(line, markerImplementation)
	default:
		return fmt.Errorf("unknown marker tag (expected %s, %s or %s)", markerFirst, markerLast, markerImplementation)
	}

	group := strings.TrimSpace(rest)
	if group == "" {
		return ErrMarkerEmptyGroup
	}

	*role = group

	return nil
}

func (c *Config) parseSimple(line string) error {
	parts := strings.SplitN(line, simpleSeparator, simpleSplitParts)

	raw := strings.TrimSpace(parts[0])
	group := strings.TrimSpace(parts[1])

	if raw == "" {
		return ErrMappingEmptyStatus
	}

	if group == "" {
		return ErrMappingEmptyGroup
	}

	c.aliases[raw] = group
	c.canonical[group] = struct{}{}

	return nil
}

func (c *Config) parseFull(line string) error {
	parts := strings.Split(line, fullSeparator)

	group := strings.TrimSpace(parts[0])
	if group == "" {
		return ErrDeclarationEmptyGroup
	}

	c.canonical[group] = struct{}{}

	// The canonical name maps to itself; a bare declaration without
	// aliases is valid.
	c.aliases[group] = group

	for _, alias := range parts[1:] {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}

		c.aliases[alias] = group
	}

	return nil
}

// validateMarkers rejects markers referencing groups that were never
// declared as a canonical group or mapping target.
func (c *Config) validateMarkers() error {
	roles := []struct {
		tag   string
		group string
	}{
		{markerFirst, c.markers.First},
		{markerLast, c.markers.Last},
		{markerImplementation, c.markers.Implementation},
	}

	for _, role := range roles {
		if role.group == "" {
			continue
		}

		if _, ok := c.canonical[role.group]; !ok {
			return &ConfigError{
				Text:   role.tag + role.group,
				Reason: fmt.Sprintf("marker references undefined group %q", role.group),
			}
		}
	}

	return nil
}
