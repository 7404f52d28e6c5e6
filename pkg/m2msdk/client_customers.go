package m2msdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CreateCustomer requires customers:write and a user context.
func (c *Client) CreateCustomer(
	ctx context.Context,
	ts *TokenSource,
	uc *UserContext,
	req CreateCustomerRequest,
) (*Customer, error) {
	var out CustomerResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/m2m/customers", ts, uc, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

// UpdateCustomer requires customers:write and a user context.
func (c *Client) UpdateCustomer(
	ctx context.Context,
	ts *TokenSource,
	uc *UserContext,
	id string,
	req UpdateCustomerRequest,
) (*Customer, error) {
	var out CustomerResponse
	path := "/api/m2m/customers/" + url.PathEscape(id)
	if err := c.sendJSON(ctx, http.MethodPatch, path, ts, uc, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

// SearchCustomers requires customers:read; the user context is optional.
func (c *Client) SearchCustomers(
	ctx context.Context,
	ts *TokenSource,
	uc *UserContext,
	req SearchCustomersRequest,
) (*SearchCustomersResponse, error) {
	q := url.Values{}
	if req.Query != "" {
		q.Set("q", req.Query)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if len(req.Fields) > 0 {
		q.Set("fields", strings.Join(req.Fields, ","))
	}

	path := "/api/m2m/customers/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, ts, uc, nil)
	if err != nil {
		return nil, err
	}

	var out SearchCustomersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) sendJSON(
	ctx context.Context,
	method, path string,
	ts *TokenSource,
	uc *UserContext,
	in, out any,
	expectedStatus int,
) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, method, path, bytes.NewReader(body), ts, uc,
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}
