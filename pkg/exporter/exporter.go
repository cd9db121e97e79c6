package exporter

import (
	"context"
	"time"

	"fbexport/pkg/config"
	"fbexport/pkg/errors"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
	"fbexport/pkg/models"
)

// Progress receives per-endpoint updates during a crawl
type Progress interface {
	EndpointStarted(endpoint string)
	EndpointFinished(endpoint string, merged int, code errors.Code)
}

// Exporter orchestrates one Graph account's export
type Exporter struct {
	client   *graph.Client
	config   *config.Config
	photos   PhotoStore
	logger   logger.Logger
	progress Progress
	now      func() time.Time
}

// New creates a new Exporter
func New(client *graph.Client, cfg *config.Config, photos PhotoStore, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{
		client: client,
		config: cfg,
		photos: photos,
		logger: log,
		now:    time.Now,
	}
}

// SetProgress registers a progress receiver
func (e *Exporter) SetProgress(p Progress) {
	e.progress = p
}

// ValidateToken checks the access token and its permissions
func (e *Exporter) ValidateToken(ctx context.Context) errors.Code {
	return checkToken(ctx, e.client, e.config.Graph.RequiredPermissions, e.logger)
}

// Owner returns the id of the user the access token belongs to
func (e *Exporter) Owner(ctx context.Context) (string, errors.Code) {
	return resolveOwner(ctx, e.client, e.logger)
}

// GetData crawls every configured endpoint through window and returns the
// merged posts. The crawl runs from window.Since back to window.Until; a
// zero Until means DefaultLookback before now.
//
// A failed crawl still returns whatever was merged before the failure.
func (e *Exporter) GetData(ctx context.Context, window models.Window, photoSize string) *models.Result {
	result := &models.Result{Code: errors.Failed, Data: map[string]*models.Post{}}

	if window.Until.IsZero() {
		window.Until = e.now().Add(-e.config.Crawl.DefaultLookback)
	}
	if err := window.Validate(); err != nil {
		e.logger.WithError(err).Error("Invalid crawl window")
		return result
	}

	threshold, err := e.config.Crawl.Threshold()
	if err != nil {
		e.logger.WithError(err).Error("Invalid multi endpoint threshold")
		return result
	}

	if code := e.ValidateToken(ctx); code.Failed() {
		result.Code = code
		return result
	}

	ownerID, code := resolveOwner(ctx, e.client, e.logger)
	if code != errors.Ok {
		result.Code = code
		return result
	}

	sess, err := newSession(e.client, e.config, ownerID, photoSize, e.photos, e.logger)
	if err != nil {
		e.logger.WithError(err).Error("Unable to start crawl session")
		return result
	}

	store := NewStore(e.logger)
	endpoints := e.config.Crawl.Ordered()
	e.logger.InfoWithFields("Starting export", map[string]interface{}{
		"owner":     ownerID,
		"since":     window.Since,
		"until":     window.Until,
		"endpoints": endpoints,
	})

	for _, endpoint := range endpoints {
		start, eff, ok := planEndpoint(endpoint, window, threshold)
		if !ok {
			e.logger.DebugWithFields("Endpoint outside multi endpoint range, skipped", map[string]interface{}{
				"endpoint": endpoint,
			})
			continue
		}

		if e.progress != nil {
			e.progress.EndpointStarted(endpoint)
		}
		before := store.Len()
		code, pages := sess.crawlEndpoint(ctx, endpoint, start, eff, store)
		merged := store.Len() - before
		logger.LogEndpointDone(e.logger, endpoint, pages, merged, code)
		if e.progress != nil {
			e.progress.EndpointFinished(endpoint, merged, code)
		}

		if !code.Terminal() {
			result.Code = code
			result.Data = store.Posts()
			result.Count = len(result.Data)
			return result
		}
	}

	result.Code = errors.Ok
	result.Data = store.Posts()
	result.Count = len(result.Data)
	return result
}

// planEndpoint works out the starting cursor and effective window of an
// endpoint. Supplementary endpoints only cover history older than the
// threshold; false means the endpoint has nothing to contribute.
func planEndpoint(endpoint string, window models.Window, threshold time.Time) (cursor, models.Window, bool) {
	eff := window
	if endpoint != endpointFeed && !threshold.IsZero() &&
		(window.Since.IsZero() || window.Since.After(threshold)) {
		if threshold.Before(window.Until) {
			return cursor{}, eff, false
		}
		eff.Since = threshold
	}

	// links and notes ignore time bounds, so they are walked by cursor
	opaque := (endpoint == "links" || endpoint == "notes") &&
		(window.Since.IsZero() || (!threshold.IsZero() && !window.Since.After(threshold)))

	return cursor{newer: eff.Since, older: eff.Until, opaque: opaque}, eff, true
}
