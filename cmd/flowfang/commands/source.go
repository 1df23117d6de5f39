// Package commands implements CLI command handlers for flowfang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/flowfang/internal/config"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

// Issue source labels used in logs and metrics.
const (
	sourceSnapshot = "snapshot"
	sourceLive     = "live"
	sourceCache    = "cache"
)

// ErrNoSource is returned when neither a snapshot file nor a project key is given.
var ErrNoSource = errors.New("either --input or --project is required")

// issueSource describes where issue records come from: an offline snapshot
// file or a live Jira project (with a local cache fallback).
type issueSource struct {
	input    string
	project  string
	jql      string
	validate bool
}

// load retrieves the issue set and reports which source served it.
func (src issueSource) load(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]jira.Issue, string, error) {
	if src.input != "" {
		issues, err := src.loadSnapshot()

		return issues, sourceSnapshot, err
	}

	if src.project == "" {
		return nil, "", ErrNoSource
	}

	return src.loadLive(ctx, cfg, logger)
}

func (src issueSource) loadSnapshot() ([]jira.Issue, error) {
	data, err := os.ReadFile(src.input)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	if src.validate {
		if err := jira.ValidateSnapshot(data); err != nil {
			return nil, err
		}
	}

	issues, err := jira.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", src.input, err)
	}

	return issues, nil
}

// loadLive fetches issues from the configured Jira instance and refreshes
// the local cache. When the fetch fails but a cached snapshot exists, the
// cache serves the run with a warning.
func (src issueSource) loadLive(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]jira.Issue, string, error) {
	client := jira.NewClient(jira.ClientConfig{
		BaseURL:    cfg.Jira.BaseURL,
		User:       cfg.Jira.User,
		APIToken:   cfg.Jira.APIToken,
		Timeout:    cfg.Jira.Timeout,
		MaxRetries: cfg.Jira.MaxRetries,
		Backoff:    cfg.Jira.Backoff,
		Logger:     logger,
	})

	cache := jira.NewSnapshotCache(cfg.Jira.CacheDir)

	issues, err := client.SearchIssues(ctx, src.project, src.jql)
	if err != nil {
		cached, cacheErr := cache.Load(src.project)
		if cacheErr != nil {
			return nil, "", errors.Join(err, cacheErr)
		}

		logger.Warn("live retrieval failed, serving cached snapshot",
			"project", src.project, "error", err)

		return cached, sourceCache, nil
	}

	if storeErr := cache.Store(src.project, issues); storeErr != nil {
		logger.Warn("snapshot cache refresh failed", "project", src.project, "error", storeErr)
	}

	return issues, sourceLive, nil
}
