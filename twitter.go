package xboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"xboard/config"
	"xboard/models"
)

const (
	// The user timeline endpoint rejects max_results outside 5..100.
	minPageSize = 5
	maxPageSize = 10

	userLookupFields = "id,username"
	tweetFields      = "id,text,created_at,public_metrics"
	userFields       = "id,name,username,profile_image_url"
)

// ErrUnresolvableAccounts is returned when no requested account maps to a user ID
var ErrUnresolvableAccounts = errors.New("no valid user IDs found")

// HTTPError captures a non-2xx answer from the X API
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("X API returned status code %d: %s", e.StatusCode, string(e.Body))
}

// TwitterUser is a user object as returned by the X API v2
type TwitterUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

// PublicMetrics are the engagement counters of a post
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count"`
	LikeCount    int `json:"like_count"`
	ReplyCount   int `json:"reply_count"`
	QuoteCount   int `json:"quote_count"`
}

// TwitterTweet is a post object as returned by the X API v2
type TwitterTweet struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	AuthorID      string         `json:"author_id"`
	CreatedAt     string         `json:"created_at"`
	PublicMetrics *PublicMetrics `json:"public_metrics"`
}

// TwitterResponse structure for the user timeline endpoint
type TwitterResponse struct {
	Data     []TwitterTweet `json:"data"`
	Includes struct {
		Users []TwitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type userLookupResponse struct {
	Data   []TwitterUser `json:"data"`
	Errors []struct {
		Value  string `json:"value"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// TwitterClient fetches timelines from the X API and never fails:
// anything that goes wrong is answered with fallback tweets.
type TwitterClient struct {
	baseURL     string
	bearerToken string
	client      *http.Client
	now         func() time.Time
}

// NewTwitterClient builds a client from cfg. base is the transport-level client
// the bearer token is layered on; nil means http.DefaultClient.
func NewTwitterClient(cfg config.Config, base *http.Client) *TwitterClient {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	c := &TwitterClient{
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		bearerToken: cfg.BearerToken,
		now:         time.Now,
	}
	if c.bearerToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.bearerToken, TokenType: "Bearer"})
		c.client = oauth2.NewClient(ctx, src)
	}
	return c
}

// FetchTimeline returns up to limit recent tweets of the first resolvable account.
// The second result says whether the tweets are live or fallback data.
func (c *TwitterClient) FetchTimeline(ctx context.Context, accounts []string, limit int) ([]models.Tweet, models.Source) {
	if c.bearerToken == "" {
		log.Printf("⚠️  X_BEARER_TOKEN not found, using fallback tweets")
		return FallbackTweets(limit, c.now()), models.SourceFallback
	}

	log.Printf("🔍 Fetching tweets for accounts: %v", accounts)
	tweets, err := c.fetchLive(ctx, accounts, limit)
	if err != nil {
		log.Printf("❌ Failed to fetch from X API: %v", err)
		return FallbackTweets(limit, c.now()), models.SourceFallback
	}
	if len(tweets) == 0 {
		log.Printf("ℹ️  No tweets found in X API response, using fallback tweets")
		return FallbackTweets(limit, c.now()), models.SourceFallback
	}

	log.Printf("✅ Successfully fetched %d tweets from X API", len(tweets))
	return tweets, models.SourceLive
}

func (c *TwitterClient) fetchLive(ctx context.Context, accounts []string, limit int) ([]models.Tweet, error) {
	// Only the first account is served; timelines are not merged.
	if len(accounts) > 0 && IsUserID(accounts[0]) {
		return c.fetchUserTweets(ctx, accounts[0], limit)
	}

	userIDs, err := c.resolveUserIDs(ctx, accounts)
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, ErrUnresolvableAccounts
	}

	return c.fetchUserTweets(ctx, userIDs[0], limit)
}

// resolveUserIDs keeps numeric entries as user IDs and looks up the rest
// as handles in one batched call. Input order is preserved and handles
// the API does not know are dropped.
func (c *TwitterClient) resolveUserIDs(ctx context.Context, accounts []string) ([]string, error) {
	var handles []string
	for _, account := range accounts {
		if !IsUserID(account) {
			handles = append(handles, normalizeHandle(account))
		}
	}

	var byHandle map[string]string
	if len(handles) > 0 {
		var err error
		byHandle, err = c.lookupUserIDs(ctx, handles)
		if err != nil {
			return nil, fmt.Errorf("users lookup failed: %w", err)
		}
	}

	userIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		if IsUserID(account) {
			userIDs = append(userIDs, account)
			continue
		}
		if id, ok := byHandle[strings.ToLower(normalizeHandle(account))]; ok {
			userIDs = append(userIDs, id)
		}
	}
	log.Printf("👥 Resolved user IDs: %v", userIDs)
	return userIDs, nil
}

func (c *TwitterClient) lookupUserIDs(ctx context.Context, handles []string) (map[string]string, error) {
	params := url.Values{
		"usernames":   {strings.Join(handles, ",")},
		"user.fields": {userLookupFields},
	}

	var resp userLookupResponse
	if err := c.getJSON(ctx, "/users/by", params, &resp); err != nil {
		return nil, err
	}
	for _, e := range resp.Errors {
		log.Printf("⚠️  Could not resolve @%s: %s", e.Value, e.Detail)
	}

	byHandle := make(map[string]string, len(resp.Data))
	for _, user := range resp.Data {
		byHandle[strings.ToLower(user.Username)] = user.ID
	}
	return byHandle, nil
}

func (c *TwitterClient) fetchUserTweets(ctx context.Context, userID string, limit int) ([]models.Tweet, error) {
	params := url.Values{
		"max_results":  {fmt.Sprint(pageSize(limit))},
		"tweet.fields": {tweetFields},
		"user.fields":  {userFields},
		"expansions":   {"author_id"},
	}

	var resp TwitterResponse
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(userID)+"/tweets", params, &resp); err != nil {
		return nil, err
	}

	tweets := NormalizeTimeline(resp)
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}
	return tweets, nil
}

// getJSON performs one GET against the X API and decodes a 2xx body into out.
func (c *TwitterClient) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	urlStr := c.baseURL + endpoint
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// IsUserID reports whether account is a numeric user ID rather than a handle.
func IsUserID(account string) bool {
	if account == "" {
		return false
	}
	for _, r := range account {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeHandle(account string) string {
	return strings.TrimPrefix(account, "@")
}

// pageSize never asks for fewer than the API minimum; fetchUserTweets
// truncates the page back to limit.
func pageSize(limit int) int {
	n := min(limit, maxPageSize)
	if n < minPageSize {
		n = minPageSize
	}
	return n
}
