// Package rest implements the finance ports against the upstream REST
// API: JSON bodies, bearer auth, one attempt per call. Failures are
// classified into finance.Error so views can show them as-is.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"finview/internal/core"
	"finview/internal/finance"
)

// TokenSource supplies the current bearer token for authenticated calls.
// The session manager implements it.
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

// Ensure interface conformance.
var (
	_ finance.Authenticator    = (*Client)(nil)
	_ finance.TransactionStore = (*Client)(nil)
	_ finance.CategoryStore    = (*Client)(nil)
	_ finance.Maintainer       = (*Client)(nil)
)

// New creates a client for the given base URL (e.g. "http://localhost:8000/api/").
// No overall request timeout is set; callers bound requests via context.
func New(baseURL string, tokens TokenSource) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", base.Scheme)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Transport: newPooledTransport()},
		tokens: tokens,
	}, nil
}

// newPooledTransport returns a transport with connection pooling and
// keep-alive tuned for a single upstream host.
func newPooledTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

func (c *Client) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	if err := reg.Validate(); err != nil {
		return core.User{}, err
	}
	var out userDTO
	err := c.do(ctx, http.MethodPost, "users/", registerRequest{
		Username: reg.Username,
		Password: reg.Password,
	}, false, &out)
	if err != nil {
		return core.User{}, err
	}
	return core.User{ID: out.ID, Username: out.Username}, nil
}

func (c *Client) Login(ctx context.Context, creds core.Credentials) (finance.TokenPair, error) {
	if err := creds.Validate(); err != nil {
		return finance.TokenPair{}, err
	}
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "token/", tokenRequest{
		Username: creds.Username,
		Password: creds.Password,
	}, false, &out)
	if err != nil {
		return finance.TokenPair{}, err
	}
	return finance.TokenPair{Access: out.Access, Refresh: out.Refresh}, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var dtos []transactionDTO
	if err := c.do(ctx, http.MethodGet, "transactions/", nil, true, &dtos); err != nil {
		return nil, err
	}
	txns := make([]core.Transaction, 0, len(dtos))
	for _, d := range dtos {
		txn, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var out transactionDTO
	if err := c.do(ctx, http.MethodPost, "transactions/", toCreateRequest(in), true, &out); err != nil {
		return core.Transaction{}, err
	}
	return out.toDomain()
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("transactions/%d/", id), nil, true, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var dtos []categoryDTO
	if err := c.do(ctx, http.MethodGet, "categories/", nil, true, &dtos); err != nil {
		return nil, err
	}
	cats := make([]core.Category, 0, len(dtos))
	for _, d := range dtos {
		cats = append(cats, core.Category{ID: d.ID, Name: d.Name})
	}
	return cats, nil
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	var out categoryDTO
	if err := c.do(ctx, http.MethodPost, "categories/", createCategoryRequest{Name: in.Name}, true, &out); err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: out.ID, Name: out.Name}, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("categories/%d/", id), nil, true, nil)
}

func (c *Client) Reset(ctx context.Context) (string, error) {
	var out detailResponse
	if err := c.do(ctx, http.MethodDelete, "reset/", nil, true, &out); err != nil {
		return "", err
	}
	if out.Detail == "" {
		out.Detail = "All data has been reset."
	}
	return out.Detail, nil
}

func (c *Client) Export(ctx context.Context, format string) (finance.Download, error) {
	if format != "json" && format != "csv" {
		return finance.Download{}, &finance.Error{Kind: finance.KindGeneric, Message: "Invalid export format selected."}
	}
	req, err := c.newRequest(ctx, http.MethodGet, "export/"+format+"/", nil, true)
	if err != nil {
		return finance.Download{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return finance.Download{}, &finance.Error{Kind: finance.KindConnectivity, Message: finance.MsgConnectivity}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return finance.Download{}, classify(resp)
	}
	return finance.Download{
		Filename:    attachmentName(resp, "data_export."+format),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// do performs one round trip and decodes a 2xx JSON body into out.
// There are no retries and no client-side timeout; the context bounds the call.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	req, err := c.newRequest(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Upstream request failed", "method", method, "path", path, "error", err)
		return &finance.Error{Kind: finance.KindConnectivity, Message: finance.MsgConnectivity}
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Upstream request completed",
		"method", method, "path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, authed bool) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed && c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// classify maps a non-2xx response to a finance.Error. Bodies that carry
// a "detail" string or per-field validation arrays are surfaced verbatim;
// everything else falls back to a generic message.
func classify(resp *http.Response) *finance.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &finance.Error{Kind: finance.KindAuth, Status: resp.StatusCode, Message: finance.MsgSessionGone}
	case resp.StatusCode >= 500:
		return &finance.Error{Kind: finance.KindServer, Status: resp.StatusCode, Message: finance.MsgServer}
	}

	detail, fields := parseErrorBody(raw)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		msg := detail
		if msg == "" {
			msg = "Not found."
		}
		return &finance.Error{Kind: finance.KindNotFound, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusBadRequest:
		msg := detail
		if msg == "" {
			msg = joinFieldErrors(fields)
		}
		if msg == "" {
			msg = finance.MsgGeneric
		}
		return &finance.Error{Kind: finance.KindValidation, Status: resp.StatusCode, Message: msg}
	default:
		msg := detail
		if msg == "" {
			msg = finance.MsgGeneric
		}
		return &finance.Error{Kind: finance.KindGeneric, Status: resp.StatusCode, Message: msg}
	}
}

// parseErrorBody extracts the "detail" string and any per-field message
// arrays from an upstream error body. Unparseable bodies yield nothing.
func parseErrorBody(raw []byte) (detail string, fields map[string][]string) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	if d, ok := body["detail"]; ok {
		var s string
		if json.Unmarshal(d, &s) == nil {
			detail = s
		}
		delete(body, "detail")
	}
	fields = make(map[string][]string)
	for name, msg := range body {
		var list []string
		if json.Unmarshal(msg, &list) == nil {
			fields[name] = list
			continue
		}
		var s string
		if json.Unmarshal(msg, &s) == nil {
			fields[name] = []string{s}
		}
	}
	return detail, fields
}

// joinFieldErrors flattens per-field validation arrays into one message,
// with fields in stable order.
func joinFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(fields[name], " "))
	}
	return strings.Join(parts, "; ")
}

// attachmentName extracts the filename from Content-Disposition, falling
// back to the given default.
func attachmentName(resp *http.Response, fallback string) string {
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return fallback
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return fallback
}
