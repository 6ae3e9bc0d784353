package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"remitdesk/internal/models"
)

// ListPayerAccounts lists payer accounts. activeOnly hides deactivated ones.
func (c *Client) ListPayerAccounts(ctx context.Context, activeOnly bool) ([]models.PayerAccount, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active", "true")
	}
	var accounts []models.PayerAccount
	if err := c.Get(ctx, "/payer-accounts", q, &accounts); err != nil {
		return nil, fmt.Errorf("list payer accounts: %w", err)
	}
	return accounts, nil
}

// GetPayerAccount retrieves a payer account by ID.
func (c *Client) GetPayerAccount(ctx context.Context, id uuid.UUID) (*models.PayerAccount, error) {
	var account models.PayerAccount
	if err := c.Get(ctx, "/payer-accounts/"+id.String(), nil, &account); err != nil {
		return nil, fmt.Errorf("get payer account %s: %w", id, err)
	}
	return &account, nil
}

// CreatePayerAccount creates a payer account.
func (c *Client) CreatePayerAccount(ctx context.Context, params models.PayerAccountParams) (*models.PayerAccount, error) {
	var account models.PayerAccount
	if err := c.Post(ctx, "/payer-accounts", params, &account); err != nil {
		return nil, fmt.Errorf("create payer account: %w", err)
	}
	return &account, nil
}

// UpdatePayerAccount replaces a payer account's fields.
func (c *Client) UpdatePayerAccount(ctx context.Context, id uuid.UUID, params models.PayerAccountParams) (*models.PayerAccount, error) {
	var account models.PayerAccount
	if err := c.Put(ctx, "/payer-accounts/"+id.String(), params, &account); err != nil {
		return nil, fmt.Errorf("update payer account %s: %w", id, err)
	}
	return &account, nil
}

// DeactivatePayerAccount hides a payer account from clients.
func (c *Client) DeactivatePayerAccount(ctx context.Context, id uuid.UUID) error {
	if err := c.Delete(ctx, "/payer-accounts/"+id.String()); err != nil {
		return fmt.Errorf("deactivate payer account %s: %w", id, err)
	}
	return nil
}
