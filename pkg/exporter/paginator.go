package exporter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fbexport/pkg/errors"
	"fbexport/pkg/graph"
	"fbexport/pkg/models"
	"fbexport/pkg/retry"
)

// cursor is the paging position of one endpoint. An opaque cursor is sent
// verbatim as "after"; a time cursor moves the newer window bound.
type cursor struct {
	newer  time.Time
	older  time.Time
	after  string
	opaque bool
}

func (c cursor) query() url.Values {
	if c.opaque {
		return graph.AfterCursor(c.after)
	}
	return graph.TimeBounds(c.newer, c.older)
}

// fetchPage downloads one listing page, retrying generic failures with the
// configured fixed delay. A page without data and paging, or a non-fatal
// Graph error body, is NoData.
func (s *session) fetchPage(ctx context.Context, op, rawURL string) (*graph.Page, errors.Code) {
	page, err := retry.DoWithResult(func() (*graph.Page, error) {
		return s.fetchPageOnce(ctx, rawURL)
	}, s.retryConfig(ctx, op))
	if err != nil {
		code := errors.CodeOf(err)
		if code != errors.NoData {
			s.log.WithError(err).ErrorWithFields("page fetch failed", map[string]interface{}{
				"op":   op,
				"code": code,
			})
		}
		return nil, code
	}
	return page, errors.Ok
}

func (s *session) fetchPageOnce(ctx context.Context, rawURL string) (*graph.Page, error) {
	resp, err := s.client.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusNotFound {
		return nil, errors.WithCode(errors.NoData, fmt.Errorf("status %d", resp.Status))
	}

	var page graph.Page
	if err := s.client.Decode(resp, rawURL, &page); err != nil {
		return nil, err
	}

	if apiErr := page.Error; apiErr != nil {
		switch {
		case apiErr.IsQuotaError():
			return nil, errors.WithCode(errors.QuotaExceeded, apiErr)
		case apiErr.IsTokenError():
			return nil, errors.WithCode(errors.InvalidToken, apiErr)
		case resp.Status >= http.StatusInternalServerError:
			return nil, errors.WithCode(errors.Failed, apiErr)
		default:
			return nil, errors.WithCode(errors.NoData, apiErr)
		}
	}
	if resp.Status >= http.StatusInternalServerError {
		return nil, errors.WithCode(errors.Failed, fmt.Errorf("status %d", resp.Status))
	}
	if page.Data == nil && page.Paging == nil {
		return nil, errors.WithCode(errors.NoData, nil)
	}
	return &page, nil
}

// crawlEndpoint walks one endpoint backwards through the window and merges
// every page into store as soon as it arrives. It returns NoData once the
// endpoint is exhausted and a fatal code otherwise.
func (s *session) crawlEndpoint(ctx context.Context, endpoint string, start cursor, window models.Window, store *Store) (errors.Code, int) {
	log := s.log.WithField("endpoint", endpoint)
	src := source{endpoint: endpoint, feed: endpoint == endpointFeed}
	cur := start
	pages := 0
	seenAfter := map[string]bool{}

	for {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("crawl cancelled")
			return errors.Failed, pages
		}

		page, code := s.fetchPage(ctx, endpoint, s.client.EdgeURL(endpoint, cur.query()))
		if code != errors.Ok {
			return code, pages
		}
		pages++

		stop := s.mergePage(ctx, src, page, cur.opaque, window, store)
		if stop {
			log.Debug("left crawl window, stopping endpoint")
			return errors.NoData, pages
		}

		if page.Paging == nil || page.Paging.Next == "" {
			log.Debug("Unable to locate next in paging")
			return errors.NoData, pages
		}

		until, after, ok, err := graph.NextCursor(page.Paging.Next)
		if err != nil || !ok {
			if err != nil {
				log.WithError(err).Warn("unusable paging link")
			}
			return errors.NoData, pages
		}

		switch {
		case after != "":
			if seenAfter[after] {
				log.Info("paging cursor repeated, stopping endpoint")
				return errors.NoData, pages
			}
			seenAfter[after] = true
			cur.opaque = true
			cur.after = after
		case cur.opaque:
			log.Debug("endpoint switched to time paging")
			cur = cursor{newer: until, older: cur.older}
		default:
			if !cur.newer.IsZero() && !until.Before(cur.newer) {
				log.Info("No more data for next paging's until >= current until")
				return errors.NoData, pages
			}
			cur.newer = until
		}
	}
}

// mergePage parses every item of a page into store. For opaque endpoints
// the window is applied to each item here, and true is returned once an
// item older than the window shows up.
func (s *session) mergePage(ctx context.Context, src source, page *graph.Page, filter bool, window models.Window, store *Store) bool {
	for i := range page.Data {
		it := &page.Data[i]
		if it.From == nil {
			continue
		}

		if filter {
			created, _, err := graph.ItemTimes(it)
			if err != nil {
				s.log.WithError(err).DebugWithFields("item skipped", map[string]interface{}{"id": it.ID})
				continue
			}
			if !window.Until.IsZero() && created.Before(window.Until) {
				return true
			}
			if !window.Contains(created) {
				continue
			}
		}

		post, err := s.parse(ctx, src, it)
		if err != nil {
			s.log.WithError(err).WarnWithFields("unable to parse item", map[string]interface{}{
				"id":   it.ID,
				"type": it.Type,
			})
			continue
		}
		if post == nil {
			continue
		}
		store.Insert(post)
	}
	return false
}
