// Package client talks to the portal REST API. CustomerClient is the agent's
// CustomerStore; PublicStore is the customer's view through an access link.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portal/internal/logger"
	. "portal/internal/models"
)

const (
	DEFAULT_TIMEOUT = 10 * time.Second
	API_PREFIX      = "/api"
)

var ErrNotSupported = errors.New("operation not available through a public link")

// response mirrors the server envelope. Errors is only set on validation
// failures.
type response struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type CustomerClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewCustomerClient builds a client for baseURL. A nil httpClient gets one
// with DEFAULT_TIMEOUT.
func NewCustomerClient(baseURL string, httpClient *http.Client) *CustomerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DEFAULT_TIMEOUT}
	}
	return &CustomerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger.New("client").File("client"),
	}
}

func (c *CustomerClient) List(ctx context.Context) ([]CustomerRecord, error) {
	var records []CustomerRecord
	if err := c.do(ctx, http.MethodGet, customersPath(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *CustomerClient) GetByID(ctx context.Context, id string) (CustomerRecord, error) {
	var record CustomerRecord
	err := c.do(ctx, http.MethodGet, customersPath(id), nil, &record)
	return record, err
}

func (c *CustomerClient) Create(ctx context.Context, formData FormData) error {
	return c.do(ctx, http.MethodPost, customersPath(), formData, nil)
}

func (c *CustomerClient) Update(ctx context.Context, id string, formData FormData) error {
	return c.do(ctx, http.MethodPut, customersPath(id), formData, nil)
}

func (c *CustomerClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, customersPath(id), nil, nil)
}

func (c *CustomerClient) ResetEditedStatus(ctx context.Context, id string) (CustomerRecord, error) {
	var record CustomerRecord
	err := c.do(ctx, http.MethodPost, customersPath(id, "reset-edited"), nil, &record)
	return record, err
}

func (c *CustomerClient) IssuePublicLink(ctx context.Context, id string) (PublicLink, error) {
	var link PublicLink
	err := c.do(ctx, http.MethodPost, customersPath(id, "public-link"), nil, &link)
	return link, err
}

func (c *CustomerClient) CreateMock(ctx context.Context) (CustomerRecord, error) {
	var record CustomerRecord
	err := c.do(ctx, http.MethodPost, customersPath("mock"), nil, &record)
	return record, err
}

// ExportCSV streams the semicolon separated export into w.
func (c *CustomerClient) ExportCSV(ctx context.Context, w io.Writer) (int64, error) {
	log := c.log.Function("ExportCSV")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+customersPath("export.csv"), nil)
	if err != nil {
		return 0, log.Err("failed to build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, log.Err("failed to export customers", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, log.Err("failed to read export", err)
	}
	return n, nil
}

// Public returns a store scoped to one customer's access link.
func (c *CustomerClient) Public(customerID, token string) *PublicStore {
	return &PublicStore{client: c, customerID: customerID, token: token}
}

func (c *CustomerClient) do(ctx context.Context, method, path string, body, out any) error {
	log := c.log.Function("do")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return log.Err("failed to encode request", err, "path", path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return log.Err("failed to build request", err, "path", path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return log.Err("request failed", err, "method", method, "path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return log.Err("failed to decode response", err, "path", path)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return log.Err("failed to decode response data", err, "path", path)
	}
	return nil
}

// decodeError turns an error response back into the domain error the server
// mapped it from.
func decodeError(resp *http.Response) error {
	var envelope response
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if len(envelope.Errors) > 0 {
			return &ValidationError{Fields: envelope.Errors}
		}
		if envelope.Message == "invalid access link" {
			return ErrInvalidAccessToken
		}
	case http.StatusForbidden:
		return ErrInvalidAccessToken
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrAlreadyEdited
	}

	if envelope.Message != "" {
		return fmt.Errorf("server responded %d: %s", resp.StatusCode, envelope.Message)
	}
	return fmt.Errorf("server responded %d", resp.StatusCode)
}

func customersPath(segments ...string) string {
	path := API_PREFIX + "/customers"
	for _, s := range segments {
		path += "/" + url.PathEscape(s)
	}
	return path
}

// PublicStore exposes a single customer through its access link. Only the
// reads and writes the public form performs are supported.
type PublicStore struct {
	client     *CustomerClient
	customerID string
	token      string
}

func (p *PublicStore) path() string {
	return API_PREFIX + "/public/customers/" + url.PathEscape(p.customerID) + "/" + url.PathEscape(p.token)
}

func (p *PublicStore) List(ctx context.Context) ([]CustomerRecord, error) {
	return nil, ErrNotSupported
}

func (p *PublicStore) GetByID(ctx context.Context, id string) (CustomerRecord, error) {
	if id != p.customerID {
		return CustomerRecord{}, ErrInvalidAccessToken
	}
	var record CustomerRecord
	err := p.client.do(ctx, http.MethodGet, p.path(), nil, &record)
	return record, err
}

func (p *PublicStore) Create(ctx context.Context, formData FormData) error {
	return ErrNotSupported
}

func (p *PublicStore) Update(ctx context.Context, id string, formData FormData) error {
	if id != p.customerID {
		return ErrInvalidAccessToken
	}
	return p.client.do(ctx, http.MethodPut, p.path(), formData, nil)
}

func (p *PublicStore) Delete(ctx context.Context, id string) error {
	return ErrNotSupported
}
