package apiclient

import (
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// CreateSuspensionInput describes a new enforcement suspension.
type CreateSuspensionInput struct {
	SiteID    string     `json:"siteId"`
	RuleType  string     `json:"ruleType,omitempty"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Reason    string     `json:"reason"`
	CreatedBy string     `json:"createdBy"`
}

// CreateSuspensionResult reports the persisted suspension and how many
// existing candidate decisions it retroactively resolved.
type CreateSuspensionResult struct {
	Suspension        *models.EnforcementSuspension `json:"Suspension"`
	DecisionsResolved int64                         `json:"DecisionsResolved"`
}

// CreateSuspension opens a suspension window for a site.
func (c *Client) CreateSuspension(input CreateSuspensionInput) (*CreateSuspensionResult, error) {
	var result CreateSuspensionResult
	if err := c.post("/api/v1/suspensions", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EndSuspension closes an open suspension.
func (c *Client) EndSuspension(id, endedBy, reason string) (*models.EnforcementSuspension, error) {
	body := map[string]string{
		"endedBy": endedBy,
		"reason":  reason,
	}
	var susp models.EnforcementSuspension
	if err := c.post("/api/v1/suspensions/"+id+"/end", body, &susp); err != nil {
		return nil, err
	}
	return &susp, nil
}

// ListSuspensions returns suspensions, optionally filtered by site.
func (c *Client) ListSuspensions(siteID string) ([]*models.EnforcementSuspension, error) {
	path := query("/api/v1/suspensions", map[string]string{"siteId": siteID})
	var suspensions []*models.EnforcementSuspension
	if err := c.get(path, &suspensions); err != nil {
		return nil, err
	}
	return suspensions, nil
}
