package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"feedfilter/internal/adapter/render"
	"feedfilter/internal/domain"
	"feedfilter/internal/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type stubParser struct {
	feed *domain.Feed
	err  error
}

func (p *stubParser) Parse(ctx context.Context, data []byte) (*domain.Feed, error) {
	return p.feed, p.err
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []domain.Refresh
	err     error
}

func (r *memoryRecorder) RecordRefresh(ctx context.Context, refresh *domain.Refresh) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *refresh)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFeedConfig(url string) domain.FeedConfig {
	return domain.FeedConfig{
		URL:         url,
		FilterWord:  "article",
		Title:       "Filtered Feed",
		Description: "Feed entries containing 'article'",
	}
}

func clock() time.Time { return time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC) }

func newTestPipeline(f FeedFetcher, p FeedParser, rec RefreshRecorder) *FeedPipeline {
	return NewFeedPipeline(
		f, p,
		filter.NewKeyword("article"),
		[]FeedRenderer{render.NewAtomRenderer(clock), render.NewRSSRenderer(clock)},
		rec,
		testFeedConfig("https://example.com/feed.atom"),
		discardLogger(),
	)
}

func upstreamFeed() *domain.Feed {
	return &domain.Feed{
		ID:    "urn:feed",
		Links: []domain.Link{{Href: "https://example.com/"}},
		Entries: []domain.Entry{
			{ID: "1", Title: "Weekly Article Roundup"},
			{ID: "2", Title: "Bug Fixes"},
			{ID: "3", Title: "Another article on testing"},
		},
	}
}

func TestFeedPipeline_Run_Success(t *testing.T) {
	rec := &memoryRecorder{}
	p := newTestPipeline(&stubFetcher{data: []byte("<feed/>")}, &stubParser{feed: upstreamFeed()}, rec)

	doc, err := p.Run(context.Background(), domain.KindRSS, true)

	require.NoError(t, err)
	assert.Equal(t, domain.KindRSS, doc.Kind)
	assert.Equal(t, 2, doc.Entries)
	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.True(t, r.Succeeded())
	assert.True(t, r.Forced)
	assert.Equal(t, domain.KindRSS, r.Kind)
	assert.Equal(t, 3, r.EntriesTotal)
	assert.Equal(t, 2, r.EntriesMatched)
	assert.Equal(t, "https://example.com/feed.atom", r.SourceURL)
}

func TestFeedPipeline_Run_FetchErrorStopsPipeline(t *testing.T) {
	rec := &memoryRecorder{}
	fetchErr := &domain.TransportError{URL: "https://example.com/feed.atom", Err: errors.New("connection refused")}
	parser := &stubParser{feed: upstreamFeed()}
	p := newTestPipeline(&stubFetcher{err: fetchErr}, parser, rec)

	doc, err := p.Run(context.Background(), domain.KindAtom, false)

	require.Error(t, err)
	assert.Nil(t, doc)
	var transportErr *domain.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "fetch failed")
	require.Len(t, rec.records, 1)
	assert.False(t, rec.records[0].Succeeded())
	assert.Contains(t, rec.records[0].Error, "connection refused")
}

func TestFeedPipeline_Run_ParseError(t *testing.T) {
	malformed := &domain.MalformedFeedError{Err: errors.New("unexpected EOF")}
	p := newTestPipeline(&stubFetcher{data: []byte("junk")}, &stubParser{err: malformed}, nil)

	_, err := p.Run(context.Background(), domain.KindAtom, false)

	var target *domain.MalformedFeedError
	require.True(t, errors.As(err, &target))
	assert.Contains(t, err.Error(), "parse failed")
}

func TestFeedPipeline_Run_RenderError(t *testing.T) {
	feed := upstreamFeed()
	feed.ID = ""
	p := newTestPipeline(&stubFetcher{data: []byte("<feed/>")}, &stubParser{feed: feed}, nil)

	_, err := p.Run(context.Background(), domain.KindAtom, false)

	var renderErr *domain.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "id", renderErr.Field)
}

func TestFeedPipeline_Run_UnknownKind(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("<feed/>")}
	p := newTestPipeline(fetcher, &stubParser{feed: upstreamFeed()}, nil)

	_, err := p.Run(context.Background(), domain.Kind("json"), false)

	require.Error(t, err)
	assert.Equal(t, 0, fetcher.calls)
}

func TestFeedPipeline_Run_JournalFailureIsIgnored(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("disk full")}
	p := newTestPipeline(&stubFetcher{data: []byte("<feed/>")}, &stubParser{feed: upstreamFeed()}, rec)

	doc, err := p.Run(context.Background(), domain.KindAtom, false)

	require.NoError(t, err)
	assert.NotNil(t, doc)
}
