package apiclient

import (
	"fmt"

	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/review"
)

// ListReviews returns plate reviews filtered by status.
func (c *Client) ListReviews(status string, limit int) ([]*models.PlateReview, error) {
	path := query("/api/v1/reviews", map[string]string{
		"status": status,
		"limit":  intParam(limit),
	})
	var reviews []*models.PlateReview
	if err := c.get(path, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ApproveReview accepts a suspicious plate as read.
func (c *Client) ApproveReview(id, reviewedBy string) (*models.PlateReview, error) {
	body := map[string]string{"reviewedBy": reviewedBy}
	var resolved models.PlateReview
	if err := c.post("/api/v1/reviews/"+id+"/approve", body, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// CorrectReview rewrites a misread plate and resubmits the movement.
func (c *Client) CorrectReview(id, reviewedBy, correctedVRM string) (*models.PlateReview, error) {
	body := map[string]string{
		"reviewedBy":   reviewedBy,
		"correctedVrm": correctedVRM,
	}
	var resolved models.PlateReview
	if err := c.post("/api/v1/reviews/"+id+"/correct", body, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// DiscardReview drops an unusable plate read.
func (c *Client) DiscardReview(id, reviewedBy, reason string) (*models.PlateReview, error) {
	body := map[string]string{
		"reviewedBy": reviewedBy,
		"reason":     reason,
	}
	var resolved models.PlateReview
	if err := c.post("/api/v1/reviews/"+id+"/discard", body, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// BulkDiscardReviews discards every pending review carrying a suspicion tag.
func (c *Client) BulkDiscardReviews(suspicionTag, reviewedBy, reason string, limit int) (*review.BulkDiscardResult, error) {
	body := map[string]any{
		"suspicionTag": suspicionTag,
		"reviewedBy":   reviewedBy,
		"reason":       reason,
		"limit":        limit,
	}
	var result review.BulkDiscardResult
	if err := c.post("/api/v1/reviews/bulk-discard", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func intParam(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
