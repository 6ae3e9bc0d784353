package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"remitdesk/internal/models"
)

// GetKYCApplication returns a client's application.
func (c *Client) GetKYCApplication(ctx context.Context, clientID uuid.UUID) (*models.KYCApplication, error) {
	var app models.KYCApplication
	if err := c.Get(ctx, "/clients/"+clientID.String()+"/kyc", nil, &app); err != nil {
		return nil, fmt.Errorf("get kyc application: %w", err)
	}
	return &app, nil
}

// SaveKYCApplication stores a draft of a client's application.
func (c *Client) SaveKYCApplication(ctx context.Context, clientID uuid.UUID, app models.KYCApplication) (*models.KYCApplication, error) {
	var out models.KYCApplication
	if err := c.Put(ctx, "/clients/"+clientID.String()+"/kyc", app, &out); err != nil {
		return nil, fmt.Errorf("save kyc application: %w", err)
	}
	return &out, nil
}

// SubmitKYCApplication hands a client's application over for review.
func (c *Client) SubmitKYCApplication(ctx context.Context, clientID uuid.UUID) (*models.KYCApplication, error) {
	var out models.KYCApplication
	if err := c.Post(ctx, "/clients/"+clientID.String()+"/kyc/submit", nil, &out); err != nil {
		return nil, fmt.Errorf("submit kyc application: %w", err)
	}
	return &out, nil
}

// ListKYCApplications lists applications, optionally by status.
func (c *Client) ListKYCApplications(ctx context.Context, status *models.KYCStatus) ([]models.KYCApplication, error) {
	q := url.Values{}
	if status != nil {
		q.Set("status", string(*status))
	}
	var apps []models.KYCApplication
	if err := c.Get(ctx, "/kyc/applications", q, &apps); err != nil {
		return nil, fmt.Errorf("list kyc applications: %w", err)
	}
	return apps, nil
}

// DecideKYCApplication approves or rejects an application.
func (c *Client) DecideKYCApplication(ctx context.Context, id uuid.UUID, decision models.KYCDecision) (*models.KYCApplication, error) {
	var out models.KYCApplication
	if err := c.Post(ctx, "/kyc/applications/"+id.String()+"/decision", decision, &out); err != nil {
		return nil, fmt.Errorf("decide kyc application %s: %w", id, err)
	}
	return &out, nil
}
