package pulp

import (
	"context"
	"fmt"
	"net/http"
)

// Repository is the subset of the repository resource the suite works with.
type Repository struct {
	ID          string                 `json:"id"`
	Href        string                 `json:"_href,omitempty"`
	DisplayName string                 `json:"display_name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Notes       map[string]interface{} `json:"notes,omitempty"`
}

// Distributor describes a publishing distributor attached to a repository.
type Distributor struct {
	ID          string `json:"id"`
	Href        string `json:"_href,omitempty"`
	TypeID      string `json:"distributor_type_id,omitempty"`
	AutoPublish bool   `json:"auto_publish"`

	Config struct {
		RelativeURL string `json:"relative_url"`
		HTTP        bool   `json:"http"`
		HTTPS       bool   `json:"https"`
	} `json:"config"`
}

// CreateRepository creates an RPM repository with a yum importer attached.
func (c *Client) CreateRepository(ctx context.Context, id string) (*Repository, error) {
	body := map[string]interface{}{
		"id":               id,
		"importer_type_id": "yum_importer",
		"importer_config":  map[string]interface{}{},
		"notes":            map[string]string{"_repo-type": "rpm-repo"},
	}
	var repo Repository
	if err := c.do(ctx, http.MethodPost, "repositories/", body, &repo); err != nil {
		return nil, fmt.Errorf("failed to create repository %s: %w", id, err)
	}
	return &repo, nil
}

// GetRepository fetches a repository by id.
func (c *Client) GetRepository(ctx context.Context, id string) (*Repository, error) {
	var repo Repository
	if err := c.do(ctx, http.MethodGet, "repositories/"+id+"/", nil, &repo); err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", id, err)
	}
	return &repo, nil
}

// UpdateRepository applies a delta of mutable fields to a repository.
func (c *Client) UpdateRepository(ctx context.Context, id string, delta map[string]interface{}) error {
	body := map[string]interface{}{"delta": delta}
	if err := c.do(ctx, http.MethodPut, "repositories/"+id+"/", body, nil); err != nil {
		return fmt.Errorf("failed to update repository %s: %w", id, err)
	}
	return nil
}

// DeleteRepository removes a repository and all its content.
func (c *Client) DeleteRepository(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "repositories/"+id+"/", nil, nil); err != nil {
		return fmt.Errorf("failed to delete repository %s: %w", id, err)
	}
	return nil
}

// AddYumDistributor attaches a yum distributor publishing to relativeURL.
func (c *Client) AddYumDistributor(ctx context.Context, repoID, distributorID, relativeURL string) (*Distributor, error) {
	body := map[string]interface{}{
		"distributor_id":      distributorID,
		"distributor_type_id": "yum_distributor",
		"auto_publish":        false,
		"distributor_config": map[string]interface{}{
			"relative_url": relativeURL,
			"http":         true,
			"https":        true,
		},
	}
	var dist Distributor
	if err := c.do(ctx, http.MethodPost, "repositories/"+repoID+"/distributors/", body, &dist); err != nil {
		return nil, fmt.Errorf("failed to add distributor to repository %s: %w", repoID, err)
	}
	return &dist, nil
}

// Publish triggers a publish run of the given distributor and returns the
// call report with the spawned tasks.
func (c *Client) Publish(ctx context.Context, repoID, distributorID string) (*CallReport, error) {
	body := map[string]string{"id": distributorID}
	var report CallReport
	if err := c.do(ctx, http.MethodPost, "repositories/"+repoID+"/actions/publish/", body, &report); err != nil {
		return nil, fmt.Errorf("failed to publish repository %s: %w", repoID, err)
	}
	return &report, nil
}
