package xboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xboard/config"
	"xboard/models"
)

const testToken = "test-token"

// fakeXAPI emulates the two X API v2 endpoints the client uses.
type fakeXAPI struct {
	mu       sync.Mutex
	requests []*http.Request

	users       map[string]string // lowercase username -> id
	timelines   map[string]string // user id -> JSON body
	lookupCode  int
	timelineErr int
}

func newFakeXAPI() *fakeXAPI {
	return &fakeXAPI{
		users: map[string]string{
			"elonmusk": "44196397",
			"twitter":  "783214",
		},
		timelines: map[string]string{
			"44196397": timelineBody("44196397", "elonmusk", "Elon Musk", 3),
			"783214":   timelineBody("783214", "X", "X", 2),
		},
	}
}

func timelineBody(id, username, name string, n int) string {
	var posts []string
	for i := n; i > 0; i-- {
		posts = append(posts, fmt.Sprintf(
			`{"id":"%s%d","text":"post %d","author_id":"%s","created_at":"2024-05-13T1%d:00:00.000Z","public_metrics":{"retweet_count":%d,"like_count":%d,"reply_count":%d,"quote_count":0}}`,
			id, i, i, id, i, i, i*10, i*2))
	}
	return fmt.Sprintf(`{"data":[%s],"includes":{"users":[{"id":"%s","name":"%s","username":"%s","profile_image_url":"https://pbs.twimg.com/%s.jpg"}]},"meta":{"result_count":%d}}`,
		strings.Join(posts, ","), id, name, username, id, n)
}

func (f *fakeXAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"title":"Unauthorized"}`)
		return
	}

	switch {
	case r.URL.Path == "/users/by":
		if f.lookupCode != 0 {
			w.WriteHeader(f.lookupCode)
			fmt.Fprint(w, `{"title":"lookup failed"}`)
			return
		}
		var found, missing []string
		for _, name := range strings.Split(r.URL.Query().Get("usernames"), ",") {
			if id, ok := f.users[strings.ToLower(name)]; ok {
				found = append(found, fmt.Sprintf(`{"id":"%s","username":"%s"}`, id, name))
			} else {
				missing = append(missing, fmt.Sprintf(`{"value":"%s","detail":"Could not find user with usernames: [%s]."}`, name, name))
			}
		}
		fmt.Fprintf(w, `{"data":[%s],"errors":[%s]}`, strings.Join(found, ","), strings.Join(missing, ","))
	case strings.HasPrefix(r.URL.Path, "/users/") && strings.HasSuffix(r.URL.Path, "/tweets"):
		if f.timelineErr != 0 {
			w.WriteHeader(f.timelineErr)
			fmt.Fprint(w, `{"title":"Too Many Requests"}`)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/users/"), "/tweets")
		body, ok := f.timelines[id]
		if !ok {
			fmt.Fprint(w, `{"meta":{"result_count":0}}`)
			return
		}
		fmt.Fprint(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeXAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		out = append(out, r.URL.Path)
	}
	return out
}

func (f *fakeXAPI) lastQuery(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].URL.Path == path {
			return f.requests[i].URL.Query()
		}
	}
	return nil
}

func newTestClient(t *testing.T, api *fakeXAPI, token string) *TwitterClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := NewTwitterClient(config.Config{BearerToken: token, APIBaseURL: srv.URL}, srv.Client())
	c.now = func() time.Time { return time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestFetchTimeline_NoToken(t *testing.T) {
	api := newFakeXAPI()
	c := newTestClient(t, api, "")

	tweets, source := c.FetchTimeline(context.Background(), []string{"elonmusk"}, 3)

	assert.Equal(t, models.SourceFallback, source)
	assert.Equal(t, FallbackTweets(3, c.now()), tweets)
	assert.Empty(t, api.paths())
}

func TestFetchTimeline_FirstAccountOnly(t *testing.T) {
	api := newFakeXAPI()
	c := newTestClient(t, api, testToken)

	tweets, source := c.FetchTimeline(context.Background(), []string{"elonmusk", "twitter"}, 2)

	require.Equal(t, models.SourceLive, source)
	require.Len(t, tweets, 2)
	for _, tw := range tweets {
		assert.Equal(t, "elonmusk", tw.User.Username)
		assert.Equal(t, "44196397", tw.User.ID)
		require.NotNil(t, tw.Metrics)
		assert.GreaterOrEqual(t, tw.Metrics.LikeCount, 0)
	}
	assert.Equal(t, "441963973", tweets[0].ID)

	assert.Equal(t, []string{"/users/by", "/users/44196397/tweets"}, api.paths())
	assert.Equal(t, "elonmusk,twitter", api.lastQuery("/users/by").Get("usernames"))

	q := api.lastQuery("/users/44196397/tweets")
	assert.Equal(t, "5", q.Get("max_results"))
	assert.Equal(t, "author_id", q.Get("expansions"))
	assert.Equal(t, "id,text,created_at,public_metrics", q.Get("tweet.fields"))
	assert.Equal(t, "id,name,username,profile_image_url", q.Get("user.fields"))
}

func TestFetchTimeline_NumericIDsSkipLookup(t *testing.T) {
	api := newFakeXAPI()
	c := newTestClient(t, api, testToken)

	tweets, source := c.FetchTimeline(context.Background(), []string{"783214", "44196397"}, 20)

	require.Equal(t, models.SourceLive, source)
	assert.Len(t, tweets, 2)
	assert.Equal(t, []string{"/users/783214/tweets"}, api.paths())
	assert.Equal(t, "10", api.lastQuery("/users/783214/tweets").Get("max_results"))
}

func TestFetchTimeline_MixedListKeepsNumericIDs(t *testing.T) {
	api := newFakeXAPI()
	c := newTestClient(t, api, testToken)

	ids, err := c.resolveUserIDs(context.Background(), []string{"@ElonMusk", "783214", "nobody_here", "twitter"})

	require.NoError(t, err)
	assert.Equal(t, []string{"44196397", "783214", "783214"}, ids)
	assert.Equal(t, "ElonMusk,nobody_here,twitter", api.lastQuery("/users/by").Get("usernames"))
	assert.Equal(t, []string{"/users/by"}, api.paths())
}

func TestFetchTimeline_LeadingIDSkipsLookup(t *testing.T) {
	api := newFakeXAPI()
	api.lookupCode = http.StatusBadRequest
	c := newTestClient(t, api, testToken)

	tweets, source := c.FetchTimeline(context.Background(), []string{"783214", "bad handle!"}, 5)

	require.Equal(t, models.SourceLive, source)
	require.NotEmpty(t, tweets)
	assert.Equal(t, "783214", tweets[0].User.ID)
	assert.Equal(t, []string{"/users/783214/tweets"}, api.paths())
}

func TestFetchTimeline_UnknownHandlesFallBack(t *testing.T) {
	api := newFakeXAPI()
	c := newTestClient(t, api, testToken)

	_, err := c.fetchLive(context.Background(), []string{"nobody_here"}, 5)
	assert.ErrorIs(t, err, ErrUnresolvableAccounts)

	tweets, source := c.FetchTimeline(context.Background(), []string{"nobody_here"}, 5)
	assert.Equal(t, models.SourceFallback, source)
	assert.Len(t, tweets, 4)
}

func TestFetchTimeline_UpstreamErrorFallsBack(t *testing.T) {
	api := newFakeXAPI()
	api.timelineErr = http.StatusTooManyRequests
	c := newTestClient(t, api, testToken)

	_, err := c.fetchLive(context.Background(), []string{"44196397"}, 5)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "Too Many Requests")

	tweets, source := c.FetchTimeline(context.Background(), []string{"44196397"}, 5)
	assert.Equal(t, models.SourceFallback, source)
	assert.Len(t, tweets, 4)
}

func TestFetchTimeline_LookupErrorFallsBack(t *testing.T) {
	api := newFakeXAPI()
	api.lookupCode = http.StatusForbidden
	c := newTestClient(t, api, testToken)

	_, err := c.fetchLive(context.Background(), []string{"elonmusk"}, 5)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)

	_, source := c.FetchTimeline(context.Background(), []string{"elonmusk"}, 5)
	assert.Equal(t, models.SourceFallback, source)
}

func TestFetchTimeline_EmptyTimelineFallsBack(t *testing.T) {
	api := newFakeXAPI()
	api.users["quiet"] = "1"
	c := newTestClient(t, api, testToken)

	tweets, source := c.FetchTimeline(context.Background(), []string{"quiet"}, 2)

	assert.Equal(t, models.SourceFallback, source)
	assert.Len(t, tweets, 2)
}

func TestFetchTimeline_BadJSONFallsBack(t *testing.T) {
	api := newFakeXAPI()
	api.timelines["44196397"] = `{"data": [`
	c := newTestClient(t, api, testToken)

	_, source := c.FetchTimeline(context.Background(), []string{"44196397"}, 2)
	assert.Equal(t, models.SourceFallback, source)
}

func TestFetchTimeline_NetworkFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(newFakeXAPI())
	c := NewTwitterClient(config.Config{BearerToken: testToken, APIBaseURL: srv.URL}, srv.Client())
	srv.Close()

	tweets, source := c.FetchTimeline(context.Background(), []string{"elonmusk"}, 3)

	assert.Equal(t, models.SourceFallback, source)
	assert.Len(t, tweets, 3)
}

func TestPageSize(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{1, 5},
		{5, 5},
		{7, 7},
		{10, 10},
		{50, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pageSize(tt.limit), "limit %d", tt.limit)
	}
}

func TestIsUserID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"44196397", true},
		{"0", true},
		{"elonmusk", false},
		{"123abc", false},
		{"@123", false},
		{"", false},
		{"-1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUserID(tt.in), "IsUserID(%q)", tt.in)
	}
}
