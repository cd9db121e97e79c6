package likes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fbexport/pkg/config"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeFQL(t *testing.T) {
	assert.Equal(t, "SELECT url FROM url_like WHERE user_id=me() LIMIT 100", composeFQL(0, 100))
	assert.Equal(t, "SELECT url FROM url_like WHERE user_id=me() LIMIT 200, 100", composeFQL(200, 100))
	assert.Equal(t, "SELECT url FROM url_like WHERE user_id=me()", composeFQL(0, 0))
}

func newTestIterator(t *testing.T, handler http.HandlerFunc) *Iterator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.Likes.BatchSize = 2
	cfg.Retry.RetryDelay = time.Millisecond
	client := graph.NewClient(server.URL, "tok", 5*time.Second, logger.NewNopLogger())
	return NewIterator(client, cfg, logger.NewNopLogger())
}

func TestIteratorWalksBatches(t *testing.T) {
	var queries []string
	it := newTestIterator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fql", r.URL.Path)
		q := r.URL.Query().Get("q")
		queries = append(queries, q)

		switch q {
		case "SELECT url FROM url_like WHERE user_id=me() LIMIT 2":
			fmt.Fprint(w, `{"data":[{"url":"https://a"},{"url":"https://b"}]}`)
		case "SELECT url FROM url_like WHERE user_id=me() LIMIT 2, 2":
			fmt.Fprint(w, `{"data":[{"url":"https://c"}]}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	})

	var got []string
	for {
		url, ok := it.Next(context.Background())
		if !ok {
			break
		}
		got = append(got, url)
	}

	require.NoError(t, it.Err())
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, got)
	assert.Len(t, queries, 3)

	_, ok := it.Next(context.Background())
	assert.False(t, ok)
	assert.Len(t, queries, 3, "an exhausted iterator does not fetch again")
}

func TestIteratorReportsFailure(t *testing.T) {
	calls := 0
	it := newTestIterator(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"expired","type":"OAuthException","code":190}}`)
	})

	_, ok := it.Next(context.Background())
	assert.False(t, ok)
	assert.Error(t, it.Err())
	assert.Equal(t, 1, calls)
}
