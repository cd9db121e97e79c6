// Package likes exports the URLs a user has liked
package likes

import (
	"context"
	"fmt"

	"fbexport/pkg/config"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
	"fbexport/pkg/retry"
)

const baseQuery = "SELECT url FROM url_like WHERE user_id=me()"

// Iterator pulls liked URLs one at a time, fetching the next batch
// whenever the buffer runs dry
type Iterator struct {
	client *graph.Client
	retry  config.RetryConfig
	limit  int
	offset int
	buf    []string
	done   bool
	err    error
	logger logger.Logger
}

// NewIterator creates an iterator over the token owner's liked URLs
func NewIterator(client *graph.Client, cfg *config.Config, log logger.Logger) *Iterator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Iterator{
		client: client,
		retry:  cfg.Retry,
		limit:  cfg.Likes.BatchSize,
		logger: log,
	}
}

// Next returns the next URL. false means the listing is exhausted or a
// fetch failed; Err tells the two apart.
func (it *Iterator) Next(ctx context.Context) (string, bool) {
	if len(it.buf) == 0 {
		if it.done || !it.fill(ctx) {
			it.done = true
			return "", false
		}
	}

	url := it.buf[0]
	it.buf = it.buf[1:]
	return url, true
}

// Err returns the error that ended the iteration, if any
func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) fill(ctx context.Context) bool {
	query := composeFQL(it.offset, it.limit)

	res, err := retry.DoWithResult(func() (*graph.FQLResult, error) {
		var res graph.FQLResult
		if err := it.client.GetJSON(ctx, it.client.FQLURL(query), &res); err != nil {
			return nil, err
		}
		return &res, nil
	}, &retry.Config{
		MaxAttempts: it.retry.MaxRetries + 1,
		Backoff:     &retry.ConstantBackoff{Delay: it.retry.RetryDelay},
		Context:     ctx,
		Logger:      it.logger,
	})
	if err != nil {
		it.err = fmt.Errorf("liked url query failed: %w", err)
		it.logger.WithError(err).Error("Unable to fetch liked URLs")
		return false
	}

	urls := make([]string, 0, len(res.Data))
	for _, entry := range res.Data {
		if entry.URL != "" {
			urls = append(urls, entry.URL)
		}
	}
	if len(urls) == 0 {
		return false
	}

	it.buf = urls
	it.offset += it.limit
	it.logger.DebugWithFields("liked URL batch fetched", map[string]interface{}{
		"count":  len(urls),
		"offset": it.offset,
	})
	return true
}

func composeFQL(offset, limit int) string {
	switch {
	case offset > 0 && limit > 0:
		return fmt.Sprintf("%s LIMIT %d, %d", baseQuery, offset, limit)
	case limit > 0:
		return fmt.Sprintf("%s LIMIT %d", baseQuery, limit)
	default:
		return baseQuery
	}
}
