// Package backend is the HTTP client for the LeadReach backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leadreach/leadreach/internal/model"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:4000"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client calls the backend API. Authenticated calls take their bearer
// token from the context, see WithToken.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a Client for baseURL. A nil httpClient gets NewHTTPClient defaults.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidBaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}

	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}

	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login exchanges credentials for a bearer token and user.
func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	var out model.LoginResponse
	req := model.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGroups returns every business group visible to the caller.
func (c *Client) ListGroups(ctx context.Context) (*model.GroupList, error) {
	var out model.GroupList
	if err := c.doJSON(ctx, "list groups", http.MethodGet, "/businesses", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Discover asks the backend to find businesses for keywords and cities.
func (c *Client) Discover(ctx context.Context, req model.DiscoverRequest) (*model.DiscoverResponse, error) {
	var out model.DiscoverResponse
	if err := c.doJSON(ctx, "discover", http.MethodPost, "/businesses/discover", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupDetails fetches one group's full business listing.
func (c *Client) GroupDetails(ctx context.Context, id string) (*model.GroupDetails, error) {
	var out model.GroupDetails
	path := "/businesses/export/" + url.PathEscape(id)
	if err := c.doJSON(ctx, "group details", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadCSV fetches the CSV export of a group.
func (c *Client) DownloadCSV(ctx context.Context, id string) (*model.CSVFile, error) {
	path := "/exports/" + url.PathEscape(id) + "/download"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend download csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError("download csv", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend download csv: read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}

	return &model.CSVFile{Data: data, ContentType: contentType}, nil
}

// doJSON sends body as JSON and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend %s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LeadReach-Dashboard/1.0")
	return req, nil
}

// decodeError builds an *Error, lifting "message" from a JSON body if any.
func decodeError(op string, resp *http.Response) error {
	apiErr := &Error{Op: op, StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			if s, ok := body.Error.(string); ok {
				apiErr.Message = s
			}
		}
	}
	return apiErr
}
