// Package githubapi is the rate-limited GitHub client shared by both
// harvesting phases. Every call paces against the global request budget,
// borrows the credential with the most headroom, and feeds observed quota
// headers back to the pool.

package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/credential"
	"github.com/minhlq/github-harvester/internal/limiter"
	"github.com/minhlq/github-harvester/pkg/log"
)

// ErrNotFound marks a 404: a valid empty result, not a failure to retry.
var ErrNotFound = errors.New("github: resource not found")

// ErrUnprocessable marks a 422, typically a query the search API refuses.
// Not worth retrying.
var ErrUnprocessable = errors.New("github: unprocessable query")

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

var lastPageRe = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

type Client struct {
	Logger log.Logger
	Config *cfg.Config
	Pool   *credential.Pool

	pacer      *limiter.Pacer
	httpClient *http.Client
	baseUrl    string
}

func NewClient(logger log.Logger, config *cfg.Config, pool *credential.Pool) (*Client, error) {
	return &Client{
		Logger: logger,
		Config: config,
		Pool:   pool,
		pacer:  limiter.NewPacer(config.GithubApi.RequestsPerSecond, config.GithubApi.Burst),
		httpClient: &http.Client{
			Timeout: time.Duration(config.GithubApi.RequestTimeoutSec) * time.Second,
		},
		baseUrl: strings.TrimRight(config.GithubApi.BaseUrl, "/"),
	}, nil
}

// do performs one logical GET. Quota exhaustion rotates or blocks on the
// credential pool and retries the same request transparently; transient
// failures back off exponentially up to the configured attempt ceiling and
// then surface an error the caller treats as a skip.
func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	fullUrl := c.baseUrl + path
	if len(query) > 0 {
		fullUrl += "?" + query.Encode()
	}

	baseDelay := time.Duration(c.Config.GithubApi.RetryBaseDelayMs) * time.Millisecond
	maxRetries := c.Config.GithubApi.MaxRetries

	attempt := 0
	for {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, nil, err
		}
		cred, err := c.Pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}

		body, header, status, reqErr := c.send(ctx, fullUrl, cred)
		if reqErr == nil {
			remaining, resetAt := parseRateHeaders(header)

			switch {
			case status >= 200 && status < 300:
				c.Pool.Report(cred, remaining, resetAt)
				return body, header, nil

			case status == http.StatusNotFound:
				c.Pool.Report(cred, remaining, resetAt)
				return nil, nil, ErrNotFound

			case status == http.StatusUnprocessableEntity:
				c.Pool.Report(cred, remaining, resetAt)
				return nil, nil, fmt.Errorf("%w: %s", ErrUnprocessable, fullUrl)

			case (status == http.StatusForbidden || status == http.StatusTooManyRequests) && remaining == 0:
				// Quota exhausted, not a failure. Rotate or block, then
				// retry without consuming an attempt.
				c.Logger.Warn(ctx, "Credential %s exhausted, reset at %v", cred.Name, resetAt.Format(time.RFC3339))
				c.Pool.Exhaust(cred, resetAt)
				continue

			default:
				c.Pool.Report(cred, remaining, resetAt)
				reqErr = fmt.Errorf("unexpected status %d from %s", status, fullUrl)
			}
		}

		if attempt >= maxRetries {
			return nil, nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, reqErr)
		}

		delay := baseDelay << attempt
		c.Logger.Warn(ctx, "Request attempt %d failed (%v), retrying in %v", attempt+1, reqErr, delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (c *Client) send(ctx context.Context, fullUrl string, cred *credential.Credential) ([]byte, http.Header, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, nil, 0, err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "github-harvester")
	if cred.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", cred.Token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, 0, err
	}
	return body, resp.Header, resp.StatusCode, nil
}

// SearchRepositories runs one page of the repository search, most recently
// updated first so repeated runs surface active repositories.
func (c *Client) SearchRepositories(ctx context.Context, query string, page, perPage int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "updated")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	body, _, err := c.do(ctx, "/search/repositories", params)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return resp, nil
}

// Languages returns the byte count per language for one repository.
func (c *Client) Languages(ctx context.Context, fullName string) (map[string]int64, error) {
	body, _, err := c.do(ctx, "/repos/"+fullName+"/languages", nil)
	if err != nil {
		return nil, err
	}

	languages := map[string]int64{}
	if err := json.Unmarshal(body, &languages); err != nil {
		return nil, fmt.Errorf("failed to decode languages response: %w", err)
	}
	return languages, nil
}

// Contributors returns the first page of contributors, ordered by
// contribution count on the server side.
func (c *Client) Contributors(ctx context.Context, fullName string) ([]Contributor, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	body, _, err := c.do(ctx, "/repos/"+fullName+"/contributors", params)
	if err != nil {
		return nil, err
	}

	var contributors []Contributor
	if err := json.Unmarshal(body, &contributors); err != nil {
		return nil, fmt.Errorf("failed to decode contributors response: %w", err)
	}
	return contributors, nil
}

// CommitCount approximates the total number of commits from the pagination
// metadata of a one-item page. Without a Link header the literal item count
// is used, so sparse histories are still correct and everything else is a
// best-effort lower bound.
func (c *Client) CommitCount(ctx context.Context, fullName string) (int, error) {
	params := url.Values{}
	params.Set("per_page", "1")

	body, header, err := c.do(ctx, "/repos/"+fullName+"/commits", params)
	if err != nil {
		return 0, err
	}

	if last := parseLastPage(header.Get("Link")); last > 0 {
		return last, nil
	}

	var commits []json.RawMessage
	if err := json.Unmarshal(body, &commits); err != nil {
		return 0, fmt.Errorf("failed to decode commits response: %w", err)
	}
	return len(commits), nil
}

// Branches returns the first page of branches.
func (c *Client) Branches(ctx context.Context, fullName string) ([]Branch, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	body, _, err := c.do(ctx, "/repos/"+fullName+"/branches", params)
	if err != nil {
		return nil, err
	}

	var branches []Branch
	if err := json.Unmarshal(body, &branches); err != nil {
		return nil, fmt.Errorf("failed to decode branches response: %w", err)
	}
	return branches, nil
}

// Releases returns the first page of releases, newest first.
func (c *Client) Releases(ctx context.Context, fullName string) ([]Release, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	body, _, err := c.do(ctx, "/repos/"+fullName+"/releases", params)
	if err != nil {
		return nil, err
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to decode releases response: %w", err)
	}
	return releases, nil
}

// Readme fetches the repository readme, decodes it from its transport
// encoding and truncates to maxChars characters.
func (c *Client) Readme(ctx context.Context, fullName string, maxChars int) (string, error) {
	body, _, err := c.do(ctx, "/repos/"+fullName+"/readme", nil)
	if err != nil {
		return "", err
	}

	readme := &Readme{}
	if err := json.Unmarshal(body, readme); err != nil {
		return "", fmt.Errorf("failed to decode readme response: %w", err)
	}

	content := readme.Content
	if readme.Encoding == "base64" || readme.Encoding == "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("failed to decode readme content: %w", err)
		}
		content = string(decoded)
	}

	runes := []rune(content)
	if maxChars > 0 && len(runes) > maxChars {
		content = string(runes[:maxChars])
	}
	return content, nil
}

// parseRateHeaders extracts the quota view the server attached to a
// response. remaining is -1 when the header is absent.
func parseRateHeaders(header http.Header) (int, time.Time) {
	remaining := -1
	if v := header.Get(headerRateRemaining); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			remaining = parsed
		}
	}

	var resetAt time.Time
	if v := header.Get(headerRateReset); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(parsed, 0)
		}
	}
	return remaining, resetAt
}

// parseLastPage pulls the page number out of a Link header's rel="last"
// entry, 0 when absent.
func parseLastPage(link string) int {
	if link == "" {
		return 0
	}
	matches := lastPageRe.FindStringSubmatch(link)
	if len(matches) != 2 {
		return 0
	}
	page, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	return page
}
