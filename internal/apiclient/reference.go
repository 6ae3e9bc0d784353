package apiclient

import (
	"context"
	"fmt"
	"strings"

	"remitdesk/internal/models"
)

// ListCurrencies returns the currencies the platform supports.
func (c *Client) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := c.Get(ctx, "/reference/currencies", nil, &currencies); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return currencies, nil
}

// LookupBIC resolves a BIC/SWIFT code to bank details.
func (c *Client) LookupBIC(ctx context.Context, bic string) (*models.BankInfo, error) {
	bic = strings.ToUpper(strings.TrimSpace(bic))
	if !models.ValidBIC(bic) {
		return nil, fmt.Errorf("invalid BIC %q", bic)
	}
	var info models.BankInfo
	if err := c.Get(ctx, "/reference/bic/"+bic, nil, &info); err != nil {
		return nil, fmt.Errorf("lookup BIC %s: %w", bic, err)
	}
	return &info, nil
}
