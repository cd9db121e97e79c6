package exporter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"fbexport/pkg/errors"
	"fbexport/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlEndpointStopsWhenCursorDoesNotAdvance(t *testing.T) {
	g := newFakeGraph(t)
	var requested []string
	g.handle("/me/feed", func(w http.ResponseWriter, r *http.Request) {
		until := r.URL.Query().Get("until")
		requested = append(requested, until)
		sec, _ := strconv.ParseInt(until, 10, 64)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []interface{}{statusItem("p"+until, time.Unix(sec, 0), "post "+until)},
			// the API keeps pointing at the same page once it runs dry
			"paging": map[string]interface{}{"next": g.url("/me/feed?limit=25&until=1000")},
		})
	})
	s := newTestSession(t, g, testConfig(g), nil)
	store := NewStore(nopLog())

	start := cursor{newer: time.Unix(2000, 0)}
	code, pages := s.crawlEndpoint(context.Background(), "feed", start, models.Window{}, store)

	assert.Equal(t, errors.NoData, code)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []string{"2000", "1000"}, requested)
	assert.Equal(t, 2, store.Len())
}

func TestCrawlEndpointStopsWithoutNextLink(t *testing.T) {
	g := newFakeGraph(t)
	g.json("/me/feed", map[string]interface{}{
		"data":   []interface{}{statusItem("1", created, "only")},
		"paging": map[string]interface{}{},
	})
	s := newTestSession(t, g, testConfig(g), nil)
	store := NewStore(nopLog())

	code, pages := s.crawlEndpoint(context.Background(), "feed", cursor{}, models.Window{}, store)
	assert.Equal(t, errors.NoData, code)
	assert.Equal(t, 1, pages)
	assert.Equal(t, 1, store.Len())
}

func TestCrawlEndpointNoDataPage(t *testing.T) {
	g := newFakeGraph(t)
	g.json("/me/feed", map[string]interface{}{})
	s := newTestSession(t, g, testConfig(g), nil)

	code, pages := s.crawlEndpoint(context.Background(), "feed", cursor{}, models.Window{}, NewStore(nopLog()))
	assert.Equal(t, errors.NoData, code)
	assert.Equal(t, 0, pages)
	assert.Equal(t, 1, g.hitCount("/me/feed"))
}

func TestCrawlEndpointOpaqueWindow(t *testing.T) {
	since := time.Date(2010, 6, 30, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 0, -10)

	link := func(id string, at time.Time) map[string]interface{} {
		return map[string]interface{}{
			"id": id, "from": from(testOwner), "link": "https://example.com/" + id,
			"created_time": ts(at),
		}
	}

	g := newFakeGraph(t)
	var afters []string
	g.handle("/me/links", func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		switch after {
		case "":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": []interface{}{
					link("too-new", since.Add(time.Hour)),
					link("in-1", since.AddDate(0, 0, -1)),
				},
				"paging": map[string]interface{}{"next": g.url("/me/links?after=abc")},
			})
		case "abc":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": []interface{}{
					link("in-2", since.AddDate(0, 0, -2)),
					link("too-old", until.Add(-24*time.Hour)),
					link("older", until.Add(-48*time.Hour)),
				},
				"paging": map[string]interface{}{"next": g.url("/me/links?after=def")},
			})
		default:
			t.Errorf("unexpected page %q", after)
		}
	})
	s := newTestSession(t, g, testConfig(g), nil)
	store := NewStore(nopLog())

	window := models.Window{Since: since, Until: until}
	code, pages := s.crawlEndpoint(context.Background(), "links", cursor{opaque: true}, window, store)

	assert.Equal(t, errors.NoData, code)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []string{"", "abc"}, afters)

	posts := store.Posts()
	assert.Len(t, posts, 2)
	assert.Contains(t, posts, testOwner+"_in-1")
	assert.Contains(t, posts, testOwner+"_in-2")
	for _, p := range posts {
		assert.True(t, window.Contains(p.CreatedTime), p.ID)
	}
}

func TestCrawlEndpointRepeatedAfterCursor(t *testing.T) {
	g := newFakeGraph(t)
	g.json("/me/notes", map[string]interface{}{
		"data":   []interface{}{},
		"paging": map[string]interface{}{"next": g.url("/me/notes?after=same")},
	})
	s := newTestSession(t, g, testConfig(g), nil)

	code, pages := s.crawlEndpoint(context.Background(), "notes", cursor{opaque: true}, models.Window{}, NewStore(nopLog()))
	assert.Equal(t, errors.NoData, code)
	assert.Equal(t, 2, pages)
}

func TestFetchPageRetriesGenericFailures(t *testing.T) {
	g := newFakeGraph(t)
	g.handle("/me/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "{}")
	})
	s := newTestSession(t, g, testConfig(g), nil)

	_, code := s.fetchPage(context.Background(), "feed", s.client.EdgeURL("feed", nil))
	assert.Equal(t, errors.Failed, code)
	assert.Equal(t, 4, g.hitCount("/me/feed"))
}

func TestFetchPageRecoversAfterRetry(t *testing.T) {
	g := newFakeGraph(t)
	calls := 0
	g.handle("/me/feed", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, "not json")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []interface{}{}, "paging": map[string]interface{}{}})
	})
	s := newTestSession(t, g, testConfig(g), nil)

	page, code := s.fetchPage(context.Background(), "feed", s.client.EdgeURL("feed", nil))
	assert.Equal(t, errors.Ok, code)
	require.NotNil(t, page)
	assert.Equal(t, 2, calls)
}

func TestFetchPageGraphErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   errors.Code
		hits   int
	}{
		{"quota", 400, `{"error":{"message":"limit","type":"OAuthException","code":17}}`, errors.QuotaExceeded, 1},
		{"expired token", 400, `{"error":{"message":"expired","type":"OAuthException","code":190}}`, errors.InvalidToken, 1},
		{"unsupported edge", 400, `{"error":{"message":"unknown path","code":2500}}`, errors.NoData, 1},
		{"not found", 404, ``, errors.NoData, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGraph(t)
			g.handle("/me/feed", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			s := newTestSession(t, g, testConfig(g), nil)

			_, code := s.fetchPage(context.Background(), "feed", s.client.EdgeURL("feed", nil))
			assert.Equal(t, tt.want, code)
			assert.Equal(t, tt.hits, g.hitCount("/me/feed"))
		})
	}
}
