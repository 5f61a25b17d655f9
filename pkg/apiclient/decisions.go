package apiclient

import (
	"github.com/parkwarden/parkwarden/pkg/models"
)

// DecisionFilter narrows a decision listing.
type DecisionFilter struct {
	SiteID  string
	Outcome string
	Status  string
	Limit   int
}

// ListDecisions returns decisions matching the filter.
func (c *Client) ListDecisions(filter DecisionFilter) ([]*models.Decision, error) {
	path := query("/api/v1/decisions", map[string]string{
		"siteId":  filter.SiteID,
		"outcome": filter.Outcome,
		"status":  filter.Status,
		"limit":   intParam(filter.Limit),
	})
	var decisions []*models.Decision
	if err := c.get(path, &decisions); err != nil {
		return nil, err
	}
	return decisions, nil
}

// GetDecision returns one decision.
func (c *Client) GetDecision(id string) (*models.Decision, error) {
	var decision models.Decision
	if err := c.get("/api/v1/decisions/"+id, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ReviewDecision records an operator verdict. status must be APPROVED or
// DECLINED; the decision is frozen afterwards.
func (c *Client) ReviewDecision(id, status, reviewedBy, notes string) (*models.Decision, error) {
	body := map[string]string{
		"status":     status,
		"reviewedBy": reviewedBy,
		"notes":      notes,
	}
	var decision models.Decision
	if err := c.post("/api/v1/decisions/"+id+"/review", body, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}
