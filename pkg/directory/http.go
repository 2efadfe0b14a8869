package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orgwiki/orgwiki/pkg/observability"
)

const (
	headerAPIKey = "X-API-Key"
	headerOrgID  = "X-Org-ID"
)

// ClientConfig configures the HTTP directory client
type ClientConfig struct {
	// Endpoint is the base URL of the directory API
	Endpoint string
	// APIKey authenticates this service against the directory
	APIKey string
	// RootOrgID is the organization the API key belongs to; person handles
	// are always resolved against it
	RootOrgID string
	// Timeout bounds each directory round-trip
	Timeout time.Duration

	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// HTTPClient implements Client against the directory's REST API
type HTTPClient struct {
	endpoint  string
	apiKey    string
	rootOrgID string
	client    *http.Client
	logger    *logrus.Logger
	metrics   *observability.Metrics
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a directory client for the given endpoint
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPClient{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		rootOrgID: cfg.RootOrgID,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// JWKSURL returns the directory's JSON Web Key Set endpoint, used to verify
// bearer tokens it issues.
func (c *HTTPClient) JWKSURL() string {
	return c.endpoint + "/.well-known/jwks.json"
}

// Issuer returns the token issuer expected on bearer tokens.
func (c *HTTPClient) Issuer() string {
	return c.endpoint
}

// Ping checks directory reachability by listing the root org's children
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.ListSubOrganizations(ctx, c.rootOrgID)
	return err
}

// resultEnvelope is the directory's standard response wrapper
type resultEnvelope struct {
	Result json.RawMessage `json:"result"`
}

// do performs one directory API round-trip. orgID scopes the call via the
// org header. out, when non-nil, receives the unwrapped "result" payload.
func (c *HTTPClient) do(ctx context.Context, op, method, path, orgID string, query url.Values, body, out interface{}) error {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerOrgID, orgID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveDirectoryRequest(op, "error", time.Since(start))
		return &APIError{Method: method, Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	c.metrics.ObserveDirectoryRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))
	c.logger.WithFields(logrus.Fields{
		"operation": op,
		"status":    resp.StatusCode,
		"duration":  time.Since(start).String(),
	}).Debug("directory request")

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out != nil {
		var envelope resultEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", op, err)
		}
	}
	return nil
}

// readErrorMessage extracts the error body, preferring the JSON error field
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(data)
}

// ListPersons lists persons in an org, optionally filtered by handle
func (c *HTTPClient) ListPersons(ctx context.Context, orgID string, handle string) ([]Person, error) {
	query := url.Values{}
	if handle != "" {
		query.Set("handle", handle)
	}
	var persons []Person
	if err := c.do(ctx, "list_persons", http.MethodGet, "/persons", orgID, query, nil, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

// UpsertPerson creates or replaces a person record
func (c *HTTPClient) UpsertPerson(ctx context.Context, orgID string, req PersonUpsert) (*Person, error) {
	var person Person
	if err := c.do(ctx, "upsert_person", http.MethodPut, "/persons", orgID, nil, req, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// DeletePerson detaches a person from an org
func (c *HTTPClient) DeletePerson(ctx context.Context, orgID, personID string) error {
	return c.do(ctx, "delete_person", http.MethodDelete, "/persons/"+url.PathEscape(personID), orgID, nil, nil, nil)
}

// GetPersonHandles returns the person's contact handles
func (c *HTTPClient) GetPersonHandles(ctx context.Context, orgID, personID string) ([]Handle, error) {
	var handles []Handle
	if err := c.do(ctx, "get_person_handles", http.MethodGet, "/persons/"+url.PathEscape(personID)+"/handles", orgID, nil, nil, &handles); err != nil {
		return nil, err
	}
	return handles, nil
}

// ListPersonOrganizations lists every org a person belongs to
func (c *HTTPClient) ListPersonOrganizations(ctx context.Context, orgID, personID string) ([]Organization, error) {
	var orgs []Organization
	if err := c.do(ctx, "list_person_organizations", http.MethodGet, "/persons/"+url.PathEscape(personID)+"/organizations", orgID, nil, nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListPersonGroups returns the person's group names within an org. A person
// unknown to the org is an empty membership, not an error.
func (c *HTTPClient) ListPersonGroups(ctx context.Context, orgID, personID string) ([]string, error) {
	var groups []string
	err := c.do(ctx, "list_person_groups", http.MethodGet, "/persons/"+url.PathEscape(personID)+"/groups", orgID, nil, nil, &groups)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// SetPersonGroups replaces the person's group set within an org. Handles are
// re-fetched from the root org so the upsert matches the existing record.
func (c *HTTPClient) SetPersonGroups(ctx context.Context, orgID, personID string, groups []string) error {
	handles, err := c.GetPersonHandles(ctx, c.rootOrgID, personID)
	if err != nil {
		return fmt.Errorf("failed to fetch handles for person %s: %w", personID, err)
	}
	if groups == nil {
		groups = []string{}
	}
	person, err := c.UpsertPerson(ctx, orgID, PersonUpsert{Handles: handles, Groups: groups})
	if err != nil {
		return err
	}
	if person.ID != personID {
		return fmt.Errorf("directory: group update for person %s resolved to person %s", personID, person.ID)
	}
	return nil
}

// groupCreate is the payload for creating a group
type groupCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateGroup creates a group in an org; an existing group is not an error
func (c *HTTPClient) CreateGroup(ctx context.Context, orgID, name, description string) error {
	err := c.do(ctx, "create_group", http.MethodPost, "/groups", orgID, nil, groupCreate{Name: name, Description: description}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}

// ListSubOrganizations returns the ids of the org's immediate children
func (c *HTTPClient) ListSubOrganizations(ctx context.Context, orgID string) ([]string, error) {
	var ids []string
	if err := c.do(ctx, "list_suborganizations", http.MethodGet, "/organizations/suborganizations", orgID, nil, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateSubOrganization creates a child org under parentOrgID
func (c *HTTPClient) CreateSubOrganization(ctx context.Context, parentOrgID string, req SubOrganizationCreate) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, "create_suborganization", http.MethodPost, "/organizations/suborganizations", parentOrgID, nil, req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetPersonAttributes reads a person's attributes from a bucket
func (c *HTTPClient) GetPersonAttributes(ctx context.Context, orgID, personID, bucket string) (map[string]string, error) {
	var attrs map[string]string
	path := "/persons/" + url.PathEscape(personID) + "/attributes/" + url.PathEscape(bucket)
	if err := c.do(ctx, "get_person_attributes", http.MethodGet, path, orgID, nil, nil, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// SetPersonAttributes writes a person's attributes into a bucket
func (c *HTTPClient) SetPersonAttributes(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error {
	path := "/persons/" + url.PathEscape(personID) + "/attributes/" + url.PathEscape(bucket)
	return c.do(ctx, "set_person_attributes", http.MethodPut, path, orgID, nil, attrs, nil)
}

// mintTokenRequest is the payload for minting a person token
type mintTokenRequest struct {
	CustomClaims map[string]interface{} `json:"custom_claims"`
}

// MintToken mints a bearer token for a person
func (c *HTTPClient) MintToken(ctx context.Context, orgID, personID string) (string, error) {
	var token string
	path := "/persons/" + url.PathEscape(personID) + "/mint-token"
	req := mintTokenRequest{CustomClaims: map[string]interface{}{}}
	if err := c.do(ctx, "mint_token", http.MethodPost, path, orgID, nil, req, &token); err != nil {
		return "", err
	}
	return token, nil
}
