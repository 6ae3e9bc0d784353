package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"remitdesk/internal/models"
)

// OrderPage is one page of an order listing.
type OrderPage struct {
	Items []models.Order `json:"items"`
	Total int            `json:"total"`
}

func orderPath(id uuid.UUID) string {
	return "/orders/" + id.String()
}

func orderQuery(filter models.OrderFilter) url.Values {
	q := url.Values{}
	if filter.Status != nil {
		q.Set("status", string(*filter.Status))
	}
	if filter.ClientID != nil {
		q.Set("clientId", filter.ClientID.String())
	}
	if filter.Currency != nil {
		q.Set("currency", *filter.Currency)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	return q
}

// ListOrders lists orders visible to the caller.
func (c *Client) ListOrders(ctx context.Context, filter models.OrderFilter) (*OrderPage, error) {
	var page OrderPage
	if err := c.Get(ctx, "/orders", orderQuery(filter), &page); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &page, nil
}

// GetOrder retrieves an order by ID.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := c.Get(ctx, orderPath(id), nil, &order); err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

// CreateOrder creates a new order.
func (c *Client) CreateOrder(ctx context.Context, params models.CreateOrderParams) (*models.Order, error) {
	var order models.Order
	if err := c.Post(ctx, "/orders", params, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// UpdateOrder edits an order's details.
func (c *Client) UpdateOrder(ctx context.Context, id uuid.UUID, params models.UpdateOrderParams) (*models.Order, error) {
	var order models.Order
	if err := c.Patch(ctx, orderPath(id), params, &order); err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return &order, nil
}

// DeleteOrder deletes an order.
func (c *Client) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := c.Delete(ctx, orderPath(id)); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// SetOrderStatus moves an order to another status.
func (c *Client) SetOrderStatus(ctx context.Context, id uuid.UUID, change models.StatusChange) (*models.Order, error) {
	var order models.Order
	if err := c.Patch(ctx, orderPath(id)+"/status", change, &order); err != nil {
		return nil, fmt.Errorf("set order %s status %s: %w", id, change.Status, err)
	}
	return &order, nil
}

// SetTerms replaces an order's terms.
func (c *Client) SetTerms(ctx context.Context, id uuid.UUID, t models.Terms) (*models.Order, error) {
	var order models.Order
	if err := c.Put(ctx, orderPath(id)+"/terms", t, &order); err != nil {
		return nil, fmt.Errorf("set order %s terms: %w", id, err)
	}
	return &order, nil
}

// DocumentUpload describes a supporting document to attach to an order.
type DocumentUpload struct {
	Kind        models.DocumentKind
	FileName    string
	ContentType string
	Content     io.Reader
}

// UploadDocument attaches a document to an order.
func (c *Client) UploadDocument(ctx context.Context, orderID uuid.UUID, doc DocumentUpload) (*models.Document, error) {
	var out models.Document
	err := c.PostMultipart(ctx, orderPath(orderID)+"/documents", Upload{
		FieldName:   "file",
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Content:     doc.Content,
		Fields:      map[string]string{"kind": string(doc.Kind)},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("upload document to order %s: %w", orderID, err)
	}
	return &out, nil
}

// ListDocuments lists an order's documents.
func (c *Client) ListDocuments(ctx context.Context, orderID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	if err := c.Get(ctx, orderPath(orderID)+"/documents", nil, &docs); err != nil {
		return nil, fmt.Errorf("list documents of order %s: %w", orderID, err)
	}
	return docs, nil
}
