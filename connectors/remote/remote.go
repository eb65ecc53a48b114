package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/oauth2"
)

// maxBody bounds the size of a downloaded workbook.
const maxBody = 64 << 20

// Client downloads intervention workbooks published over HTTP(S), e.g. a
// shared-drive export link. A non-empty token is sent as a bearer token.
type Client struct {
	c *http.Client
}

func New(ctx context.Context, token string, timeout time.Duration) *Client {
	var c *http.Client
	if token != "" {
		c = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	} else {
		c = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.Timeout = timeout
	return &Client{c: c}
}

// Fetch downloads rawURL and returns its body with a file name suitable for
// format detection.
func (rc *Client) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, fmt.Errorf("invalid dataset url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := rc.c.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", nil, fmt.Errorf("fetch %s: unexpected status %s", u.Redacted(), resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	if len(body) > maxBody {
		return "", nil, fmt.Errorf("fetch %s: body exceeds %d bytes", u.Redacted(), maxBody)
	}
	name := fileName(u, resp)
	slog.Info("remote.fetch.done", "url", u.Redacted(), "name", name, "bytes", len(body))
	return name, body, nil
}

// fileName prefers the last path segment, falling back to a name derived from
// the content type.
func fileName(u *url.URL, resp *http.Response) string {
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." && path.Ext(base) != "" {
		return base
	}
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return "dataset.xlsx"
	}
	switch mt {
	case "text/csv", "application/csv", "text/comma-separated-values":
		return "dataset.csv"
	default:
		return "dataset.xlsx"
	}
}
