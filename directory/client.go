package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	defaultHTTPTimeout        = 60 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second
)

func defaultHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: defaultHTTPConnectTimeout}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: defaultHTTPTLSTimeout,
		},
		Timeout: defaultHTTPTimeout,
	}
}

// Client performs the remote calls of the contact directory.
// It holds no state besides its configuration.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default [http.Client].
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) { client.http = c }
}

// WithTimeout sets the time limit of a whole remote call. It applies to
// the [http.Client] given by [WithHTTPClient] too, without modifying it.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) { client.timeout = d }
}

// WithLogger sets the logger requests are reported to.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) { client.logger = l }
}

// NewClient returns a [Client] for the API mounted at baseURL,
// e.g. "http://localhost:8888/api".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    defaultHTTPClient(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		h := *c.http
		h.Timeout = c.timeout
		c.http = &h
	}
	return c
}

func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	return call[[]Contact](ctx, c, "list contacts", http.MethodGet, "/contacts", nil)
}

func (c *Client) CreateContact(ctx context.Context, partial PartialContact) (Contact, error) {
	return call[Contact](ctx, c, "create contact", http.MethodPost, "/contacts", partial)
}

func (c *Client) DeleteContact(ctx context.Context, id string) (Contact, error) {
	return call[Contact](ctx, c, "delete contact", http.MethodDelete, "/contacts/"+url.PathEscape(id), nil)
}

func (c *Client) GetContactByID(ctx context.Context, id string) (Contact, error) {
	return call[Contact](ctx, c, "get contact", http.MethodGet, "/contacts/"+url.PathEscape(id), nil)
}

func call[R any](ctx context.Context, c *Client, op, method, path string, args any) (R, error) {
	var result R
	rerr := &RemoteCallError{Op: op, Method: method, URL: c.baseURL + path}

	var body io.Reader
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			rerr.Err = err
			return result, rerr
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rerr.URL, body)
	if err != nil {
		rerr.Err = err
		return result, rerr
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		rerr.Err = err
		c.logger.LogAttrs(ctx, slog.LevelDebug, method+" "+rerr.URL,
			slog.Any("err", err),
			slog.Duration("dur", time.Since(start)),
		)
		return result, rerr
	}
	defer resp.Body.Close()

	rerr.Status = resp.StatusCode
	c.logger.LogAttrs(ctx, slog.LevelDebug, method+" "+rerr.URL,
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)),
	)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		rerr.Err = err
		return result, rerr
	}

	if resp.StatusCode/100 != 2 { //nolint: mnd // 2XX HTTP Status Codes
		rerr.Detail = problemDetail(b)
		return result, rerr
	}

	err = json.Unmarshal(b, &result)
	if err == nil {
		err = checkIDs(result)
	}
	if err != nil {
		rerr.Err = err
		return *new(R), rerr
	}
	return result, nil
}

// checkIDs rejects decoded records lacking a login.uuid.
func checkIDs(v any) error {
	switch v := v.(type) {
	case Contact:
		if v.ID() == "" {
			return ErrMissingID
		}
	case []Contact:
		for i, c := range v {
			if c.ID() == "" {
				return fmt.Errorf("item %d: %w", i, ErrMissingID)
			}
		}
	}
	return nil
}

// problemDetail extracts a message from a problem+json body, falling back
// to the trimmed body itself.
func problemDetail(b []byte) string {
	var problem huma.ErrorModel
	if json.Unmarshal(b, &problem) == nil && (problem.Detail != "" || problem.Title != "") {
		if problem.Detail != "" {
			return problem.Detail
		}
		return problem.Title
	}
	return strings.TrimSpace(string(b))
}
