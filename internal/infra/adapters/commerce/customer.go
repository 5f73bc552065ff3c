package commerce

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
)

// The phone number is not sent: the customers resource has no attribute for
// it. It stays in the order journal.
func customerPayload(f model.CustomerFields) customerRequest {
	var req customerRequest
	req.Data.Type = "customer"
	req.Data.Name = f.Name
	req.Data.Email = f.Email
	return req
}

func (c *Client) CreateCustomer(ctx context.Context, fields model.CustomerFields) (string, error) {
	if err := fields.Validate(); err != nil {
		return "", err
	}
	var out customerResponse
	if err := c.doJSON(ctx, "create_customer", http.MethodPost, c.endpoint("/v2/customers", nil), customerPayload(fields), &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", &domain.BackendError{Op: "create_customer", Status: http.StatusOK, Err: errors.New("response carries no customer id")}
	}
	return out.Data.ID, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, customerID string, fields model.CustomerFields) error {
	if customerID == "" {
		return domain.ErrInvalidArgument
	}
	if err := fields.Validate(); err != nil {
		return err
	}
	u := c.endpoint("/v2/customers/"+url.PathEscape(customerID), nil)
	return c.doJSON(ctx, "update_customer", http.MethodPut, u, customerPayload(fields), nil)
}
