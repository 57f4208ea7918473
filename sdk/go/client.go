// Package risklinesdk is a minimal Riskline HTTP API client.
package risklinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Riskline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// KRIItem represents the API item model (partial).
type KRIItem struct {
	KRIID         int64    `json:"kri_id"`
	ReportingDate int64    `json:"reporting_date"`
	Name          string   `json:"name"`
	Owner         string   `json:"owner"`
	DataProvider  string   `json:"data_provider"`
	Status        int      `json:"status"`
	Value         *float64 `json:"value,omitempty"`
	IsCalculated  bool     `json:"is_calculated"`
}

// Action is one available action in an operation context.
type Action struct {
	Name            string `json:"name"`
	Label           string `json:"label"`
	Category        string `json:"category"`
	RequiresConfirm bool   `json:"requires_confirm"`
	RequiresComment bool   `json:"requires_comment"`
	NextStatus      *int   `json:"next_status,omitempty"`
}

// OperationContext is the per-item, per-caller action surface.
type OperationContext struct {
	Item          KRIItem  `json:"item"`
	CurrentStatus int      `json:"current_status"`
	Available     []Action `json:"available_actions"`
	Permissions   []string `json:"permissions,omitempty"`
}

// Result is the structured outcome of one action execution.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BulkTarget names one item (or atomic element) in a bulk request.
type BulkTarget struct {
	KRIID         int64 `json:"kri_id"`
	ReportingDate int64 `json:"reporting_date"`
	AtomicID      int64 `json:"atomic_id,omitempty"`
}

// BulkItemResult pairs a target with its individual outcome.
type BulkItemResult struct {
	Target BulkTarget `json:"target"`
	Result Result     `json:"result"`
}

// ActionData carries the inputs of one action execution.
type ActionData struct {
	Value            *float64 `json:"value,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	EvidenceFileName string   `json:"evidence_file_name,omitempty"`
	EvidenceLink     string   `json:"evidence_link,omitempty"`
	EvidenceID       int64    `json:"evidence_id,omitempty"`
}

// AuditEntry is one recorded field mutation.
type AuditEntry struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	FieldName string `json:"field_name"`
	OldValue  string `json:"old_value,omitempty"`
	NewValue  string `json:"new_value,omitempty"`
	Actor     string `json:"actor"`
	Comment   string `json:"comment,omitempty"`
	TS        string `json:"ts"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListKRIs returns the items visible to the caller.
func (c *Client) ListKRIs(ctx context.Context, reportingDate int64) ([]KRIItem, error) {
	endpoint := "v0/kris"
	if reportingDate != 0 {
		endpoint = fmt.Sprintf("%s?reporting_date=%d", endpoint, reportingDate)
	}
	var resp struct {
		Items []KRIItem `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Context returns the caller's operation context for one KRI period.
func (c *Client) Context(ctx context.Context, kriID, reportingDate, atomicID int64) (OperationContext, error) {
	endpoint := c.kriPath(kriID, reportingDate, "context")
	if atomicID != 0 {
		endpoint = fmt.Sprintf("%s?atomic_id=%d", endpoint, atomicID)
	}
	var resp OperationContext
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ExecuteAction runs one named action against a KRI period.
func (c *Client) ExecuteAction(ctx context.Context, kriID, reportingDate int64, action string, data ActionData) (Result, error) {
	endpoint := c.kriPath(kriID, reportingDate, "actions/"+url.PathEscape(action))
	var resp Result
	err := c.do(ctx, http.MethodPost, endpoint, data, &resp)
	return resp, err
}

// BulkAction runs one action against several targets sequentially.
func (c *Client) BulkAction(ctx context.Context, action string, targets []BulkTarget, data ActionData) ([]BulkItemResult, error) {
	body := map[string]any{
		"action":  action,
		"targets": targets,
		"data":    data,
	}
	var resp struct {
		Results []BulkItemResult `json:"results"`
	}
	err := c.do(ctx, http.MethodPost, "v0/actions/bulk", body, &resp)
	return resp.Results, err
}

// CommonActions returns the actions available on every listed target.
func (c *Client) CommonActions(ctx context.Context, targets []BulkTarget) ([]Action, error) {
	body := map[string]any{"targets": targets}
	var resp struct {
		Actions []Action `json:"actions"`
	}
	err := c.do(ctx, http.MethodPost, "v0/actions/common", body, &resp)
	return resp.Actions, err
}

// AuditTrail returns a KRI period's audit entries, newest first.
func (c *Client) AuditTrail(ctx context.Context, kriID, reportingDate int64, limit int) ([]AuditEntry, error) {
	endpoint := c.kriPath(kriID, reportingDate, "audit")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Entries []AuditEntry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Entries, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) kriPath(kriID, reportingDate int64, p string) string {
	return fmt.Sprintf("v0/kris/%d/%d/%s", kriID, reportingDate, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
