// Package universalloader talks to the remote workflow automation API.
package universalloader

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"workflow-sync/backend/internal/auth"
	"workflow-sync/backend/internal/logging"
	"workflow-sync/backend/pkg/models"
)

const (
	authenticatePath = "/v2/authenticate"
	workflowsPath    = "/workflows"
	runWorkflowPath  = "/workflows/{id}/run"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// APIError is returned for non-2xx responses from the remote API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func newAPIError(resp *resty.Response) *APIError {
	body := resp.String()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{
		Method:     resp.Request.Method,
		Path:       resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Body:       body,
	}
}

func newRestyClient(baseURL string, httpClient *http.Client) *resty.Client {
	return resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}

type authenticateRequest struct {
	APICompanyID  string `json:"apiCompanyId"`
	APIUserID     string `json:"apiUserId"`
	APIUserSecret string `json:"apiUserSecret"`
}

type authenticateResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Authenticator exchanges API credentials for a bearer token. It uses a
// plain client since the exchange itself is unauthenticated.
type Authenticator struct {
	http *resty.Client
}

// NewAuthenticator creates an Authenticator for the API at baseURL.
func NewAuthenticator(baseURL string, timeout time.Duration) *Authenticator {
	return &Authenticator{
		http: newRestyClient(baseURL, &http.Client{Timeout: timeoutOrDefault(timeout)}),
	}
}

// Authenticate implements auth.CredentialExchange.
func (a *Authenticator) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.ExchangeResult, error) {
	var payload authenticateResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(authenticateRequest{
			APICompanyID:  creds.CompanyID,
			APIUserID:     creds.UserID,
			APIUserSecret: creds.UserSecret,
		}).
		ForceContentType("application/json").
		SetResult(&payload).
		Post(authenticatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	return &auth.ExchangeResult{
		AccessToken:      payload.AccessToken,
		ExpiresInSeconds: payload.ExpiresIn,
	}, nil
}

// Client lists and runs remote workflows. Every request carries a bearer
// token obtained from the configured token source.
type Client struct {
	http   *resty.Client
	logger *logging.Logger
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider, logger *logging.Logger) *Client {
	httpClient := &http.Client{
		Transport: &bearerTransport{tokens: tokens, base: http.DefaultTransport},
		Timeout:   timeoutOrDefault(timeout),
	}
	return &Client{
		http:   newRestyClient(baseURL, httpClient),
		logger: logger,
	}
}

// ListWorkflows fetches every workflow visible to the API user.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	c.logger.Info("Fetching workflows from remote API")

	var payload []remoteWorkflow
	resp, err := c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&payload).
		Get(workflowsPath)
	if err != nil {
		c.logger.Error("Error occurred while fetching workflows", "error", err)
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		c.logger.Error("Error occurred while fetching workflows", "status", apiErr.StatusCode)
		return nil, apiErr
	}

	workflows := mapWorkflows(payload)
	c.logger.Info("Successfully fetched workflows", "count", len(workflows))
	return workflows, nil
}

// RunWorkflow triggers a remote execution of the workflow with the given id.
func (c *Client) RunWorkflow(ctx context.Context, id int) (bool, error) {
	c.logger.Info("Running workflow", "workflow_id", id)

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Post(runWorkflowPath)
	if err != nil {
		c.logger.Error("Error occurred while running workflow", "workflow_id", id, "error", err)
		return false, fmt.Errorf("failed to run workflow %d: %w", id, err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		c.logger.Error("Error occurred while running workflow", "workflow_id", id, "status", apiErr.StatusCode)
		return false, apiErr
	}

	c.logger.Info("Successfully triggered workflow", "workflow_id", id)
	return true, nil
}
