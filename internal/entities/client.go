// Package entities reads and writes badge records in the low-code entities backend.
package entities

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/models"
)

// Client wraps the shared REST transport bound to the entities backend.
type Client struct {
	api *apiclient.Client
}

// NewClient creates a new entities client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// records is the entities backend's collection envelope.
type records[T any] struct {
	Records []T `json:"records"`
}

// ListBadges returns every badge definition.
func (c *Client) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var out records[models.Badge]
	if err := c.api.Get(ctx, "/entities/badge/records", nil, &out); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return out.Records, nil
}

// ListClientBadges returns a client's badge records.
func (c *Client) ListClientBadges(ctx context.Context, clientID uuid.UUID) ([]models.ClientBadge, error) {
	q := url.Values{}
	q.Set("filter[clientId]", clientID.String())

	var out records[models.ClientBadge]
	if err := c.api.Get(ctx, "/entities/client_badge/records", q, &out); err != nil {
		return nil, fmt.Errorf("list client badges: %w", err)
	}
	return out.Records, nil
}

type clientBadgeWrite struct {
	ClientID uuid.UUID          `json:"clientId"`
	BadgeID  string             `json:"badgeId"`
	Status   models.BadgeStatus `json:"status"`
	Comment  *string            `json:"comment,omitempty"`
}

// SetClientBadgeStatus creates or updates a client's badge record.
func (c *Client) SetClientBadgeStatus(ctx context.Context, clientID uuid.UUID, badgeID string, status models.BadgeStatus, comment *string) (*models.ClientBadge, error) {
	existing, err := c.ListClientBadges(ctx, clientID)
	if err != nil {
		return nil, err
	}

	body := clientBadgeWrite{ClientID: clientID, BadgeID: badgeID, Status: status, Comment: comment}

	var out models.ClientBadge
	for _, cb := range existing {
		if cb.BadgeID == badgeID {
			if err := c.api.Patch(ctx, "/entities/client_badge/records/"+url.PathEscape(cb.ID), body, &out); err != nil {
				return nil, fmt.Errorf("update client badge: %w", err)
			}
			return &out, nil
		}
	}

	if err := c.api.Post(ctx, "/entities/client_badge/records", body, &out); err != nil {
		return nil, fmt.Errorf("create client badge: %w", err)
	}
	return &out, nil
}

// BadgeViews joins every badge definition with the client's status.
// Badges the client has no record for are reported as missing.
func (c *Client) BadgeViews(ctx context.Context, clientID uuid.UUID) ([]models.BadgeView, error) {
	badges, err := c.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	clientBadges, err := c.ListClientBadges(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return JoinBadges(badges, clientBadges), nil
}

// JoinBadges merges definitions with client records, required badges first.
func JoinBadges(badges []models.Badge, clientBadges []models.ClientBadge) []models.BadgeView {
	byBadge := make(map[string]models.ClientBadge, len(clientBadges))
	for _, cb := range clientBadges {
		byBadge[cb.BadgeID] = cb
	}

	views := make([]models.BadgeView, 0, len(badges))
	for _, b := range badges {
		v := models.BadgeView{Badge: b, Status: models.BadgeStatusMissing}
		if cb, ok := byBadge[b.ID]; ok {
			v.Status = cb.Status
			v.Comment = cb.Comment
			updated := cb.UpdatedAt
			v.UpdatedAt = &updated
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Required && !views[j].Required
	})
	return views
}
