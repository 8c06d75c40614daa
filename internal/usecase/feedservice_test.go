package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedfilter/internal/adapter/fetcher"
	"feedfilter/internal/adapter/parser"
	"feedfilter/internal/adapter/render"
	"feedfilter/internal/cache"
	"feedfilter/internal/domain"
	"feedfilter/internal/filter"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeEntryAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Upstream</title>
  <id>urn:upstream</id>
  <updated>2024-03-01T10:00:00Z</updated>
  <link href="https://example.com/"/>
  <entry>
    <title>Weekly Article Roundup</title>
    <id>urn:1</id>
    <link href="https://example.com/1"/>
    <updated>2024-03-01T09:00:00Z</updated>
    <summary>Links of the week</summary>
  </entry>
  <entry>
    <title>Bug Fixes</title>
    <id>urn:2</id>
    <link href="https://example.com/2"/>
    <updated>2024-02-29T09:00:00Z</updated>
  </entry>
  <entry>
    <title>Another article on testing</title>
    <id>urn:3</id>
    <link href="https://example.com/3"/>
    <updated>2024-02-28T09:00:00Z</updated>
    <content type="text">Testing body</content>
  </entry>
</feed>`

type upstream struct {
	hits   atomic.Int64
	mu     sync.Mutex
	status int
	server *httptest.Server
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{status: http.StatusOK}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.mu.Lock()
		status := u.status
		u.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, threeEntryAtom)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) setStatus(code int) {
	u.mu.Lock()
	u.status = code
	u.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(t *testing.T, u *upstream, validity time.Duration, clk *testClock) *FeedService {
	log := discardLogger()
	pipeline := NewFeedPipeline(
		fetcher.NewHTTPFetcher(log, "", time.Second),
		parser.NewAtomParser(log),
		filter.NewKeyword("article"),
		[]FeedRenderer{render.NewAtomRenderer(clk.Now), render.NewRSSRenderer(clk.Now)},
		nil,
		testFeedConfig(u.server.URL),
		log,
	)
	gate := cache.New(validity, cache.WithClock(clk.Now))
	return NewFeedService(pipeline, gate, log)
}

func TestFeedService_EndToEnd_FiltersInOrder(t *testing.T) {
	u := newUpstream(t)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, 5*time.Minute, clk)

	for _, kind := range domain.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			doc, _, err := svc.GetFeed(context.Background(), kind, false)
			require.NoError(t, err)

			parsed, err := gofeed.NewParser().ParseString(string(doc.Body))
			require.NoError(t, err)
			assert.Equal(t, "Filtered Feed", parsed.Title)
			require.Len(t, parsed.Items, 2)
			assert.Equal(t, "Weekly Article Roundup", parsed.Items[0].Title)
			assert.Equal(t, "https://example.com/1", parsed.Items[0].Link)
			assert.Equal(t, "Another article on testing", parsed.Items[1].Title)
			assert.Equal(t, "https://example.com/3", parsed.Items[1].Link)
		})
	}
}

func TestFeedService_RSSDescriptionFallsBackToContent(t *testing.T) {
	u := newUpstream(t)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, time.Minute, clk)

	doc, _, err := svc.GetFeed(context.Background(), domain.KindRSS, false)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(doc.Body))
	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Links of the week", parsed.Items[0].Description)
	assert.Equal(t, "Testing body", parsed.Items[1].Description)
	assert.Equal(t, "urn:3", parsed.Items[1].GUID)
}

func TestFeedService_CacheFreshness(t *testing.T) {
	u := newUpstream(t)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, 5*time.Minute, clk)

	_, cached, err := svc.GetFeed(context.Background(), domain.KindAtom, false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.EqualValues(t, 1, u.hits.Load())

	clk.Advance(4 * time.Minute)
	_, cached, err = svc.GetFeed(context.Background(), domain.KindAtom, false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.EqualValues(t, 1, u.hits.Load())

	clk.Advance(time.Minute)
	_, cached, err = svc.GetFeed(context.Background(), domain.KindAtom, false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.EqualValues(t, 2, u.hits.Load())
}

func TestFeedService_ForcedRefresh(t *testing.T) {
	u := newUpstream(t)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, time.Hour, clk)

	_, _, err := svc.GetFeed(context.Background(), domain.KindRSS, false)
	require.NoError(t, err)
	require.NoError(t, svc.RefreshFeed(context.Background(), domain.KindRSS))
	_, cached, err := svc.GetFeed(context.Background(), domain.KindRSS, true)
	require.NoError(t, err)

	assert.False(t, cached)
	assert.EqualValues(t, 3, u.hits.Load())
}

func TestFeedService_UpstreamFailureIsolation(t *testing.T) {
	u := newUpstream(t)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, 5*time.Minute, clk)

	original, _, err := svc.GetFeed(context.Background(), domain.KindRSS, false)
	require.NoError(t, err)

	u.setStatus(http.StatusBadGateway)
	clk.Advance(time.Minute)
	_, _, err = svc.GetFeed(context.Background(), domain.KindRSS, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")

	served, cached, err := svc.GetFeed(context.Background(), domain.KindRSS, false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, original.Body, served.Body)
}

func TestFeedService_ColdFailurePropagates(t *testing.T) {
	u := newUpstream(t)
	u.setStatus(http.StatusInternalServerError)
	clk := &testClock{now: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, u, 5*time.Minute, clk)

	doc, _, err := svc.GetFeed(context.Background(), domain.KindAtom, false)

	require.Error(t, err)
	assert.Nil(t, doc)
	var statusErr *domain.UpstreamStatusError
	assert.ErrorAs(t, err, &statusErr)
}
