package imagefap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/patrickkfkan/imagefap-dl/internal/dispatch"
	"github.com/patrickkfkan/imagefap-dl/pkg/config"
	errs "github.com/patrickkfkan/imagefap-dl/pkg/errors"
	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
	"github.com/patrickkfkan/imagefap-dl/pkg/retry"
)

// challengeMarkers identify anti-automation interstitials. They often
// arrive with a 403, so the body is checked before the status code.
var challengeMarkers = []string{
	"ddos-guard",
	"checking your browser",
	"verifying you are human",
	"just a moment",
}

// Client fetches site pages and image files through two independently
// paced queues: page requests are fully serialized with a long spacing,
// image downloads run concurrently with a short one. All requests share
// one cookie jar so the session cookies picked up by the bootstrap
// request ride along on everything that follows.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	cfg        *config.RequestConfig
	logger     logger.Logger

	pageQueue  *dispatch.Queue
	imageQueue *dispatch.Queue

	sessionMu    sync.Mutex
	sessionReady bool
}

// NewClient creates a client from the request configuration. Call
// Start before fetching and Close when the run is over.
func NewClient(cfg *config.RequestConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Jar:       jar,
			Transport: transport,
		},
		baseURL: BaseURL,
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		cfg:    cfg,
		logger: log,
	}, nil
}

// SetBaseURL points the client at a different site root. Page URLs on
// the production host are rewritten onto it, which is how tests run
// the full traversal against a local server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// Start brings up the two dispatch queues, bound to ctx.
func (c *Client) Start(ctx context.Context) {
	c.pageQueue = dispatch.NewQueue(ctx, "pages", 1, c.cfg.PageInterval(), c.logger)
	c.imageQueue = dispatch.NewQueue(ctx, "images", c.cfg.ImageConcurrency, c.cfg.ImageInterval(), c.logger)
	c.pageQueue.Start()
	c.imageQueue.Start()
}

// Close stops both queues. Jobs not yet started are discarded.
func (c *Client) Close() {
	if c.pageQueue != nil {
		c.pageQueue.Stop()
	}
	if c.imageQueue != nil {
		c.imageQueue.Stop()
	}
}

// FetchPage fetches a site page through the page queue and returns the
// body along with the final URL after redirects. Transport errors and
// non-success statuses are retried on a fixed interval; a recognized
// anti-automation challenge aborts immediately.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return "", "", err
	}
	return c.fetchQueued(ctx, c.rebase(pageURL))
}

// ensureSession performs the one-time unauthenticated request to the
// site root that establishes the session cookies. A failed bootstrap
// is retried by the next FetchPage call rather than poisoning the run.
func (c *Client) ensureSession(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sessionReady {
		return nil
	}

	c.logger.Debug("establishing session")
	_, _, err := c.fetchQueued(ctx, c.baseURL+"/")
	if err != nil {
		return err
	}
	c.sessionReady = true

	if u, err := url.Parse(c.baseURL + "/"); err == nil {
		c.logger.DebugWithFields("session established", map[string]interface{}{
			"cookies": len(c.httpClient.Jar.Cookies(u)),
		})
	}
	return nil
}

func (c *Client) fetchQueued(ctx context.Context, pageURL string) (string, string, error) {
	var body, finalURL string
	err := c.pageQueue.Do(ctx, func() error {
		// Retrying inside the job keeps the queue serialized during
		// waits, so retried requests stay as far apart as page loads.
		return retry.Do(func() error {
			b, f, err := c.fetchOnce(ctx, pageURL)
			if err != nil {
				return err
			}
			body, finalURL = b, f
			return nil
		}, &retry.Config{
			MaxRetries: c.cfg.MaxRetries,
			Delay:      c.cfg.PageInterval(),
			Context:    ctx,
			Logger:     c.logger,
		})
	})
	if err != nil {
		return "", "", err
	}
	return body, finalURL, nil
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("failed to create request for %s", pageURL))
	}
	c.applyHeaders(req)

	c.logger.DebugWithFields("fetching page", map[string]interface{}{
		"url": pageURL,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("request to %s failed", pageURL))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("failed to read response from %s", pageURL))
	}
	body := string(data)

	// Challenge pages usually carry an error status, so this check
	// comes first: they must abort the run, not burn retries.
	if isChallengePage(body) {
		c.logger.ErrorWithFields("anti-automation challenge received", map[string]interface{}{
			"url":    pageURL,
			"status": resp.StatusCode,
		})
		return "", "", errs.Fatal("anti-automation challenge received; aborting run")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", errs.Network(resp.StatusCode, fmt.Sprintf("unexpected status fetching %s", pageURL))
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	c.logger.DebugWithFields("fetched page", map[string]interface{}{
		"url":       pageURL,
		"final_url": finalURL,
		"bytes":     len(body),
	})
	return body, finalURL, nil
}

// DownloadImage fetches one image file through the image queue and
// commits it to destPath by writing a ".part" file and renaming it into
// place, so a readable file at destPath is always complete. There is no
// retry here: whether a failed image is skipped or aborts the gallery
// is the caller's decision.
func (c *Client) DownloadImage(ctx context.Context, src, destPath string) error {
	return c.imageQueue.Do(ctx, func() error {
		return c.downloadOnce(ctx, src, destPath)
	})
}

func (c *Client) downloadOnce(ctx context.Context, src, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("failed to create request for %s", src))
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("request to %s failed", src))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.Network(resp.StatusCode, fmt.Sprintf("unexpected status downloading %s", src))
	}

	partPath := destPath + ".part"
	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(partPath)
		return errs.Wrap(errs.KindNetwork, err, fmt.Sprintf("download of %s interrupted", src))
	}
	if err := f.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to close %s: %w", partPath, err)
	}
	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to move %s into place: %w", partPath, err)
	}

	c.logger.DebugWithFields("downloaded image", map[string]interface{}{
		"src":   src,
		"dest":  destPath,
		"bytes": written,
	})
	return nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
}

// rebase rewrites a site-host page URL onto the configured base URL.
// URLs on other hosts (image CDNs) pass through untouched.
func (c *Client) rebase(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || !IsSiteHost(u.Host) {
		return pageURL
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return pageURL
	}
	u.Scheme = base.Scheme
	u.Host = base.Host
	return u.String()
}

func isChallengePage(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
