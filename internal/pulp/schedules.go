package pulp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Schedule is a recurring publish schedule on a distributor. Schedule strings
// use ISO 8601 intervals, e.g. "PT30S" or "2026-01-01T00:00:00Z/P1D".
type Schedule struct {
	Href                string `json:"_href,omitempty"`
	Schedule            string `json:"schedule"`
	Enabled             bool   `json:"enabled"`
	TotalRunCount       int    `json:"total_run_count"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

func schedulesPath(repoID, distributorID string) string {
	return "repositories/" + repoID + "/distributors/" + distributorID + "/schedules/publish/"
}

// CreatePublishSchedule registers a recurring publish on a distributor.
func (c *Client) CreatePublishSchedule(ctx context.Context, repoID, distributorID, iso string) (*Schedule, error) {
	body := map[string]string{"schedule": iso}
	var sched Schedule
	if err := c.do(ctx, http.MethodPost, schedulesPath(repoID, distributorID), body, &sched); err != nil {
		return nil, fmt.Errorf("failed to create publish schedule on %s/%s: %w", repoID, distributorID, err)
	}
	return &sched, nil
}

// ListPublishSchedules returns all publish schedules of a distributor.
func (c *Client) ListPublishSchedules(ctx context.Context, repoID, distributorID string) ([]Schedule, error) {
	var schedules []Schedule
	if err := c.do(ctx, http.MethodGet, schedulesPath(repoID, distributorID), nil, &schedules); err != nil {
		return nil, fmt.Errorf("failed to list publish schedules on %s/%s: %w", repoID, distributorID, err)
	}
	return schedules, nil
}

// GetSchedule reads one schedule back by its href.
func (c *Client) GetSchedule(ctx context.Context, href string) (*Schedule, error) {
	var sched Schedule
	if err := c.do(ctx, http.MethodGet, hrefPath(href), nil, &sched); err != nil {
		return nil, fmt.Errorf("failed to get schedule %s: %w", href, err)
	}
	return &sched, nil
}

// UpdateSchedule applies field changes to a schedule by its href.
func (c *Client) UpdateSchedule(ctx context.Context, href string, fields map[string]interface{}) (*Schedule, error) {
	var sched Schedule
	if err := c.do(ctx, http.MethodPut, hrefPath(href), fields, &sched); err != nil {
		return nil, fmt.Errorf("failed to update schedule %s: %w", href, err)
	}
	return &sched, nil
}

// DeleteSchedule removes a schedule by its href.
func (c *Client) DeleteSchedule(ctx context.Context, href string) error {
	if err := c.do(ctx, http.MethodDelete, hrefPath(href), nil, nil); err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", href, err)
	}
	return nil
}

// hrefPath makes an _href usable with do: hrefs already carry the full API
// prefix, so they are passed through as server-root paths.
func hrefPath(href string) string {
	if strings.HasPrefix(href, "/") {
		return href
	}
	return "/" + href
}
