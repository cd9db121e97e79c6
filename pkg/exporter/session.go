package exporter

import (
	"context"
	"fmt"

	"fbexport/pkg/config"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
	"fbexport/pkg/retry"

	lru "github.com/hashicorp/golang-lru/v2"
)

const objectCacheSize = 512

// PhotoStore persists downloaded image bytes and returns the local path
type PhotoStore interface {
	SavePhoto(data []byte, ext string) (string, error)
}

// session is the execution context of one crawl. Every component reads the
// client, owner and settings from here rather than from package state.
type session struct {
	client    *graph.Client
	cfg       *config.Config
	ownerID   string
	sizeIndex int
	photos    PhotoStore
	objects   *lru.Cache[string, *graph.Item]
	log       logger.Logger
}

func newSession(client *graph.Client, cfg *config.Config, ownerID, photoSize string, photos PhotoStore, log logger.Logger) (*session, error) {
	objects, err := lru.New[string, *graph.Item](objectCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create object cache: %w", err)
	}

	return &session{
		client:    client,
		cfg:       cfg,
		ownerID:   ownerID,
		sizeIndex: sizeIndex(photoSize),
		photos:    photos,
		objects:   objects,
		log:       log,
	}, nil
}

// sizeIndex picks the rendition in a photo object's images list. The API
// lists the largest first and a medium one second.
func sizeIndex(photoSize string) int {
	if photoSize == config.PhotoSizeMedium {
		return 1
	}
	return 0
}

// object fetches a single Graph object, caching it for the session. Album
// and photo objects are commonly referenced by several feed items.
func (s *session) object(ctx context.Context, id string) (*graph.Item, error) {
	if id == "" {
		return nil, fmt.Errorf("empty object id")
	}
	if obj, ok := s.objects.Get(id); ok {
		return obj, nil
	}

	var obj graph.Item
	if err := s.client.GetJSON(ctx, s.client.ObjectURL(id), &obj); err != nil {
		s.log.WithError(err).DebugWithFields("object lookup failed", map[string]interface{}{
			"object_id": id,
		})
		return nil, err
	}

	s.objects.Add(id, &obj)
	return &obj, nil
}

func (s *session) retryConfig(ctx context.Context, op string) *retry.Config {
	return &retry.Config{
		MaxAttempts: s.cfg.Retry.MaxRetries + 1,
		Backoff:     &retry.ConstantBackoff{Delay: s.cfg.Retry.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      s.log.WithField("op", op),
	}
}
