// Package reddit reads ranked listings of submissions and comments from the
// Reddit API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// MaxListingLimit is the most items the API serves for a single listing.
const MaxListingLimit = 1000

const (
	defaultOAuthBaseURL  = "https://oauth.reddit.com"
	defaultPublicBaseURL = "https://www.reddit.com"
	defaultTokenURL      = "https://www.reddit.com/api/v1/access_token"
	defaultPageSize      = 100
	defaultTimeout       = 30 * time.Second
)

// Sort selects a ranked view over a subreddit.
type Sort string

// Listing views, in the order collection walks them.
const (
	SortTop           Sort = "top"
	SortHot           Sort = "hot"
	SortNew           Sort = "new"
	SortGilded        Sort = "gilded"
	SortControversial Sort = "controversial"
)

// Sorts lists every view collected for a forum.
var Sorts = []Sort{SortTop, SortHot, SortNew, SortGilded, SortControversial}

// Config controls how the client reaches the API. Without a ClientID the
// public JSON endpoints are used anonymously.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	// PageSize is the number of items requested per page (max 100).
	PageSize int
	// OnPage, if set, is called after every successfully decoded page.
	OnPage func(subreddit string, sort Sort)
}

// Client fetches listings page by page.
type Client struct {
	http     *resty.Client
	pageSize int
	onPage   func(string, Sort)
	logger   *zap.Logger
}

// New builds a Client. When credentials are configured the underlying HTTP
// client obtains and refreshes an app-only token on demand.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	if cfg.ClientID != "" && cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required when client id is set")
	}

	base := &http.Client{Transport: &userAgentTransport{agent: cfg.UserAgent, base: http.DefaultTransport}}
	httpClient := base
	baseURL := cfg.BaseURL
	if cfg.ClientID != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = defaultTokenURL
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		httpClient = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
		if baseURL == "" {
			baseURL = defaultOAuthBaseURL
		}
	} else if baseURL == "" {
		baseURL = defaultPublicBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	logger.Debug("reddit client ready",
		zap.String("base_url", baseURL),
		zap.Bool("authenticated", cfg.ClientID != ""),
		zap.Int("page_size", pageSize),
	)
	return &Client{http: rc, pageSize: pageSize, onPage: cfg.OnPage, logger: logger}, nil
}

// Items walks one listing of subreddit, yielding at most min(limit,
// MaxListingLimit) items. Iteration stops at the first error, which is yielded
// with a nil Item.
func (c *Client) Items(ctx context.Context, subreddit string, sort Sort, limit int) iter.Seq2[Item, error] {
	limit = min(limit, MaxListingLimit)
	return func(yield func(Item, error) bool) {
		after := ""
		fetched := 0
		for fetched < limit {
			page, err := c.page(ctx, subreddit, sort, min(c.pageSize, limit-fetched), after, fetched)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, t := range page.Data.Children {
				if fetched >= limit {
					return
				}
				item, err := t.item()
				if err != nil {
					yield(nil, fmt.Errorf("r/%s/%s: %w", subreddit, sort, err))
					return
				}
				fetched++
				if !yield(item, nil) {
					return
				}
			}
			if len(page.Data.Children) == 0 || page.Data.After == "" {
				return
			}
			after = page.Data.After
		}
	}
}

func (c *Client) page(ctx context.Context, subreddit string, sort Sort, size int, after string, count int) (listingResponse, error) {
	params := map[string]string{
		"limit":    strconv.Itoa(size),
		"raw_json": "1",
	}
	if after != "" {
		params["after"] = after
		params["count"] = strconv.Itoa(count)
	}
	if sort == SortTop || sort == SortControversial {
		params["t"] = "all"
	}

	path := fmt.Sprintf("/r/%s/%s.json", url.PathEscape(subreddit), sort)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return listingResponse{}, fmt.Errorf("fetch r/%s/%s: %w", subreddit, sort, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return listingResponse{}, &StatusError{
			StatusCode: code,
			URL:        resp.Request.URL,
			Body:       string(resp.Body()),
		}
	}

	var listing listingResponse
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return listingResponse{}, fmt.Errorf("decode r/%s/%s: %w", subreddit, sort, err)
	}
	c.logger.Debug("listing page",
		zap.String("subreddit", subreddit),
		zap.String("sort", string(sort)),
		zap.Int("items", len(listing.Data.Children)),
		zap.String("after", listing.Data.After),
	)
	if c.onPage != nil {
		c.onPage(subreddit, sort)
	}
	return listing, nil
}

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}
