package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/testutil"
)

var contractSpecPath = filepath.Join("..", "..", "docs", "api", "backend.openapi.yaml")

// loadContract loads the backend OpenAPI document and points it at serverURL.
func loadContract(t *testing.T, serverURL string) routers.Router {
	t.Helper()

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(contractSpecPath)
	if err != nil {
		t.Fatalf("load OpenAPI document %s: %v", contractSpecPath, err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document invalid: %v", err)
	}

	spec.Servers = openapi3.Servers{{URL: serverURL}}
	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("build router from document: %v", err)
	}
	return router
}

// contractTransport checks every request the client sends, and every
// response it gets back, against the OpenAPI document.
type contractTransport struct {
	t      *testing.T
	router routers.Router
	next   http.RoundTripper
}

func (c *contractTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.t.Helper()

	var reqBody []byte
	if req.Body != nil {
		var err error
		if reqBody, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	checked := req.Clone(req.Context())
	checked.Body = io.NopCloser(bytes.NewReader(reqBody))

	route, pathParams, err := c.router.FindRoute(checked)
	if err != nil {
		c.t.Errorf("%s %s is not in the backend document: %v", req.Method, req.URL.Path, err)
		return nil, err
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    checked,
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc},
	}
	if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
		c.t.Errorf("request %s %s violates the backend document: %v", req.Method, req.URL.Path, err)
	}

	forward := req.Clone(req.Context())
	forward.Body = io.NopCloser(bytes.NewReader(reqBody))
	forward.ContentLength = int64(len(reqBody))

	resp, err := c.next.RoundTrip(forward)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	opts := &openapi3filter.Options{IncludeResponseStatus: true}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		opts.ExcludeResponseBody = true
	}
	respInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(respBody)),
		Options:                opts,
	}
	if err := openapi3filter.ValidateResponse(req.Context(), respInput); err != nil {
		c.t.Errorf("response %d for %s %s violates the backend document: %v", resp.StatusCode, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func newContractClient(t *testing.T, fake *testutil.FakeBackend) *Client {
	t.Helper()

	transport := &contractTransport{
		t:      t,
		router: loadContract(t, fake.URL()),
		next:   http.DefaultTransport,
	}
	client, err := New(fake.URL(), &http.Client{Transport: &bearerTransport{base: transport}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestContract_DocumentValid(t *testing.T) {
	t.Parallel()
	loadContract(t, DefaultBaseURL)
}

func TestContract_ClientMatchesDocument(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeBackend(t)
	fake.SetGroups(testutil.NewTestGroup(t, "g-1", 12))
	fake.SetDetails("g-1", testutil.NewTestDetails(t, "Coffee Shops", 3))
	fake.SetCSV("g-1", []byte("name\nA\n"))
	fake.SetDiscovered(4)

	client := newContractClient(t, fake)

	resp, err := client.Login(context.Background(), "demo", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	ctx := WithToken(context.Background(), resp.Token)

	if _, err := client.ListGroups(ctx); err != nil {
		t.Errorf("ListGroups() error = %v", err)
	}
	if _, err := client.Discover(ctx, model.DiscoverRequest{Keywords: []string{"coffee"}, Cities: []string{"Austin"}, Limit: 50}); err != nil {
		t.Errorf("Discover() error = %v", err)
	}
	if _, err := client.GroupDetails(ctx, "g-1"); err != nil {
		t.Errorf("GroupDetails() error = %v", err)
	}
	if _, err := client.DownloadCSV(ctx, "g-1"); err != nil {
		t.Errorf("DownloadCSV() error = %v", err)
	}
}

func TestContract_ErrorResponses(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeBackend(t)
	client := newContractClient(t, fake)

	if _, err := client.Login(context.Background(), "demo", "wrong"); !IsUnauthorized(err) {
		t.Errorf("Login() error = %v, want 401", err)
	}

	ctx := WithToken(context.Background(), fake.Token())
	if _, err := client.GroupDetails(ctx, "missing"); err == nil {
		t.Error("GroupDetails() should fail for an unknown group")
	}

	fake.FailWith(testutil.OpList, http.StatusForbidden, "")
	if _, err := client.ListGroups(ctx); !IsUnauthorized(err) {
		t.Errorf("ListGroups() error = %v, want 403", err)
	}
}
