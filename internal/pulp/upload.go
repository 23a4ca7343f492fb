package pulp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// TaskRef points at a task spawned by an asynchronous call.
type TaskRef struct {
	TaskID string `json:"task_id"`
	Href   string `json:"_href,omitempty"`
}

// CallReport is the response body of asynchronous operations.
type CallReport struct {
	SpawnedTasks []TaskRef `json:"spawned_tasks"`
}

type uploadRequest struct {
	UploadID     string                 `json:"upload_id"`
	UnitTypeID   string                 `json:"unit_type_id"`
	UnitKey      map[string]interface{} `json:"unit_key"`
	UnitMetadata interface{}            `json:"unit_metadata"`
}

// UploadImport runs the three-step metadata-unit import: allocate an upload,
// import it into the repository, then release the upload container. Units
// carried entirely in unit_metadata need no file content, so the data-chunk
// step is skipped.
func (c *Client) UploadImport(ctx context.Context, repoID, unitTypeID string, unitKey map[string]interface{}, metadata interface{}) (*CallReport, error) {
	var malloc struct {
		UploadID string `json:"upload_id"`
	}
	if err := c.do(ctx, http.MethodPost, "content/uploads/", map[string]interface{}{}, &malloc); err != nil {
		return nil, fmt.Errorf("failed to allocate upload: %w", err)
	}
	if malloc.UploadID == "" {
		return nil, fmt.Errorf("server returned empty upload_id")
	}

	req := uploadRequest{
		UploadID:     malloc.UploadID,
		UnitTypeID:   unitTypeID,
		UnitKey:      unitKey,
		UnitMetadata: metadata,
	}
	var report CallReport
	err := c.do(ctx, http.MethodPost, "repositories/"+repoID+"/actions/import_upload/", req, &report)

	// Release the container regardless of import outcome.
	if cleanupErr := c.do(ctx, http.MethodDelete, "content/uploads/"+malloc.UploadID+"/", nil, nil); cleanupErr != nil {
		logrus.Warnf("Failed to delete upload %s: %v", malloc.UploadID, cleanupErr)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to import %s unit into %s: %w", unitTypeID, repoID, err)
	}
	return &report, nil
}
