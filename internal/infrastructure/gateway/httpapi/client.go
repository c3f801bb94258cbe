// Package httpapi implements the case store and calculator over the case REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/infrastructure/config"
)

// DefaultTimeout is used when the config leaves the timeout unset.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// RequestIDHeader carries a per-request id for correlating logs.
const RequestIDHeader = "X-Request-ID"

// Client is a ports.Gateway backed by the case REST API.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

var _ ports.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the API described by cfg.
func NewClient(cfg config.APIConfig, logger logrus.FieldLogger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request. body, when non-nil, is sent as JSON; out, when non-nil,
// receives the decoded response.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return &domain.GatewayError{Op: op, Kind: domain.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		gerr := &domain.GatewayError{
			Op:     op,
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Detail: decodeDetail(raw),
		}
		log.WithField("detail", gerr.Detail).Debug("request rejected")
		return gerr
	}
	log.Debug("request completed")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.GatewayError{
			Op:     op,
			Kind:   domain.KindServer,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("decoding response: %w", err),
		}
	}
	return nil
}

// kindForStatus maps an HTTP status code to a domain.ErrorKind.
func kindForStatus(status int) domain.ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.KindUnauthorized
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.KindValidation
	default:
		return domain.KindServer
	}
}

func casePath(caseID int64) string {
	return fmt.Sprintf("/api/cases/%d", caseID)
}

// ListCases returns the cases visible to the token's user.
func (c *Client) ListCases(ctx context.Context) ([]entities.Case, error) {
	var wire []wireCase
	if err := c.do(ctx, "list cases", http.MethodGet, "/api/cases/", nil, &wire); err != nil {
		return nil, err
	}
	cases := make([]entities.Case, len(wire))
	for i := range wire {
		cases[i] = wire[i].entity()
	}
	return cases, nil
}

// GetCase returns a case with its persons and relationships.
func (c *Client) GetCase(ctx context.Context, caseID int64) (*entities.CaseDetail, error) {
	var wire wireCaseDetail
	if err := c.do(ctx, "get case", http.MethodGet, casePath(caseID), nil, &wire); err != nil {
		return nil, err
	}
	return wire.entity(), nil
}

// CreateCase creates a case.
func (c *Client) CreateCase(ctx context.Context, data entities.CreateCaseData) (*entities.Case, error) {
	var wire wireCase
	if err := c.do(ctx, "create case", http.MethodPost, "/api/cases/", data, &wire); err != nil {
		return nil, err
	}
	out := wire.entity()
	return &out, nil
}

// UpdateCase applies a partial update to a case.
func (c *Client) UpdateCase(ctx context.Context, caseID int64, data entities.UpdateCaseData) (*entities.Case, error) {
	var wire wireCase
	if err := c.do(ctx, "update case", http.MethodPatch, casePath(caseID), data, &wire); err != nil {
		return nil, err
	}
	out := wire.entity()
	return &out, nil
}

// DeleteCase deletes a case.
func (c *Client) DeleteCase(ctx context.Context, caseID int64) error {
	return c.do(ctx, "delete case", http.MethodDelete, casePath(caseID), nil, nil)
}

// CreatePerson adds a person to a case.
func (c *Client) CreatePerson(ctx context.Context, caseID int64, data entities.CreatePersonData) (*entities.Person, error) {
	var wire wirePerson
	if err := c.do(ctx, "create person", http.MethodPost, casePath(caseID)+"/persons", data, &wire); err != nil {
		return nil, err
	}
	out := wire.entity()
	return &out, nil
}

// UpdatePerson applies a partial update to a person.
func (c *Client) UpdatePerson(ctx context.Context, caseID, personID int64, data entities.UpdatePersonData) (*entities.Person, error) {
	var wire wirePerson
	path := fmt.Sprintf("%s/persons/%d", casePath(caseID), personID)
	if err := c.do(ctx, "update person", http.MethodPatch, path, data, &wire); err != nil {
		return nil, err
	}
	out := wire.entity()
	return &out, nil
}

// DeletePerson deletes a person. The store decides what happens to its relationships.
func (c *Client) DeletePerson(ctx context.Context, caseID, personID int64) error {
	path := fmt.Sprintf("%s/persons/%d", casePath(caseID), personID)
	return c.do(ctx, "delete person", http.MethodDelete, path, nil, nil)
}

// CreateRelationship adds a relationship to a case.
func (c *Client) CreateRelationship(ctx context.Context, caseID int64, data entities.CreateRelationshipData) (*entities.Relationship, error) {
	var wire wireRelationship
	if err := c.do(ctx, "create relationship", http.MethodPost, casePath(caseID)+"/relationships", data, &wire); err != nil {
		return nil, err
	}
	out := wire.entity()
	return &out, nil
}

// DeleteRelationship deletes a relationship.
func (c *Client) DeleteRelationship(ctx context.Context, caseID, relationshipID int64) error {
	path := fmt.Sprintf("%s/relationships/%d", casePath(caseID), relationshipID)
	return c.do(ctx, "delete relationship", http.MethodDelete, path, nil, nil)
}

// CalculateInheritance asks the store to compute the statutory shares.
func (c *Client) CalculateInheritance(ctx context.Context, caseID int64) (*entities.CalculationResult, error) {
	var result entities.CalculationResult
	if err := c.do(ctx, "calculate", http.MethodPost, casePath(caseID)+"/calculate", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TextTree returns the store's plain-text rendering of the family tree.
func (c *Client) TextTree(ctx context.Context, caseID int64) (string, error) {
	var resp textTreeResponse
	if err := c.do(ctx, "text tree", http.MethodGet, casePath(caseID)+"/ascii-tree", nil, &resp); err != nil {
		return "", err
	}
	return resp.ASCIITree, nil
}
