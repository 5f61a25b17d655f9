package apiclient

import (
	"fmt"

	"github.com/parkwarden/parkwarden/pkg/export"
	"github.com/parkwarden/parkwarden/pkg/models"
)

// ListSites returns all active sites.
func (c *Client) ListSites() ([]*models.Site, error) {
	var sites []*models.Site
	if err := c.get("/api/v1/sites", &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// GetSite returns one site with its parsed configuration.
func (c *Client) GetSite(id string) (*models.Site, error) {
	var site models.Site
	if err := c.get("/api/v1/sites/"+id, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// GetSnapshot builds the current export snapshot for a site.
func (c *Client) GetSnapshot(siteID string) (*export.Snapshot, error) {
	var snapshot export.Snapshot
	if err := c.get("/api/v1/sites/"+siteID+"/snapshot", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// PublishSite publishes a site's snapshot to the configured bucket.
func (c *Client) PublishSite(siteID string) (*export.Snapshot, error) {
	var snapshot export.Snapshot
	if err := c.post("/api/v1/sites/"+siteID+"/export", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetSnapshotSchema returns the JSON-Schema document for the snapshot format.
func (c *Client) GetSnapshotSchema() (map[string]any, error) {
	var schema map[string]any
	if err := c.get("/api/v1/export/schema", &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// ReconcileSite queues a full re-evaluation of a site's unreviewed decisions.
func (c *Client) ReconcileSite(siteID string, limit int) error {
	path := "/api/v1/sites/" + siteID + "/reconcile"
	if limit > 0 {
		path = query(path, map[string]string{"limit": fmt.Sprintf("%d", limit)})
	}
	return c.post(path, nil, nil)
}
