package exporter

import (
	"sync"

	"fbexport/pkg/logger"
	"fbexport/pkg/models"
)

// Store holds the posts of one crawl keyed by id. The first post stored
// under an id wins; later ones are logged and dropped.
type Store struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	log   logger.Logger
}

// NewStore creates an empty store
func NewStore(log logger.Logger) *Store {
	return &Store{
		posts: make(map[string]*models.Post),
		log:   log,
	}
}

// Insert stores p unless its id is taken. It reports whether p was stored.
func (s *Store) Insert(p *models.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.posts[p.ID]; ok {
		s.log.DebugWithFields("conflicting post ignored", map[string]interface{}{
			"id":            p.ID,
			"kept_kind":     existing.Kind.String(),
			"dropped_kind":  p.Kind.String(),
			"kept_created":  existing.CreatedTime,
			"dropped_links": len(p.Links),
		})
		return false
	}

	s.posts[p.ID] = p
	return true
}

// Get returns the post stored under id
func (s *Store) Get(id string) (*models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

// Len returns the number of stored posts
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// Posts returns a snapshot of the stored posts
func (s *Store) Posts() map[string]*models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*models.Post, len(s.posts))
	for id, p := range s.posts {
		out[id] = p
	}
	return out
}
