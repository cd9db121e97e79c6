package exporter

import (
	"context"
	"time"

	"fbexport/pkg/errors"
	"fbexport/pkg/graph"
	"fbexport/pkg/models"
)

// harvestedPhoto is one album photo matched to a post
type harvestedPhoto struct {
	Path   string
	Place  *models.Place
	People []models.Person
}

// harvestAlbum collects the photos of an album taken within the match
// window around base. Album listings are newest first, so the first photo
// older than the window ends the harvest. maxCount <= 0 is unbounded.
func (s *session) harvestAlbum(ctx context.Context, albumID string, base time.Time, maxCount int) ([]harvestedPhoto, errors.Code) {
	span := s.cfg.Album.MatchWindow
	newest, oldest := base.Add(span), base.Add(-span)

	limit := s.cfg.Album.PageSize
	if limit <= 0 {
		limit = 25
	}
	if maxCount > 0 && maxCount < limit {
		limit = maxCount
	}

	log := s.log.WithField("album_id", albumID)
	var out []harvestedPhoto
	offset := 0
	lastFirst := ""

	for {
		page, code := s.fetchPage(ctx, "album", s.client.AlbumPhotosURL(albumID, offset, limit))
		if code == errors.NoData {
			return out, errors.Ok
		}
		if code != errors.Ok {
			return out, code
		}
		if len(page.Data) == 0 {
			return out, errors.Ok
		}
		// a listing that ignores offset keeps serving the same page
		if page.Data[0].ID != "" && page.Data[0].ID == lastFirst {
			log.Debug("album offset did not advance")
			return out, errors.Ok
		}
		lastFirst = page.Data[0].ID

		for i := range page.Data {
			it := &page.Data[i]
			created, _, err := graph.ItemTimes(it)
			if err != nil {
				log.WithError(err).DebugWithFields("album photo skipped", map[string]interface{}{"id": it.ID})
				continue
			}
			if created.After(newest) {
				continue
			}
			if created.Before(oldest) {
				return out, errors.Ok
			}

			path, ok := s.resolveImage(ctx, s.sizedImageURL(ctx, it))
			if !ok {
				continue
			}
			out = append(out, harvestedPhoto{
				Path:   path,
				Place:  placeOf(it),
				People: s.people(ctx, it, it.Tags),
			})
		}

		if maxCount > 0 {
			if len(out) >= maxCount {
				return out[:maxCount], errors.Ok
			}
			if len(out)+limit > maxCount {
				limit = maxCount - len(out)
			}
		}
		offset += len(page.Data)
	}
}

// attachAlbum harvests the album around the post's creation time and
// fills in place and people from the first photo carrying them
func (s *session) attachAlbum(ctx context.Context, post *models.Post, albumID string) {
	photos, code := s.harvestAlbum(ctx, albumID, post.CreatedTime, 0)
	if code.Failed() || len(photos) == 0 {
		return
	}

	for _, ph := range photos {
		post.Photos = append(post.Photos, ph.Path)
	}
	for _, ph := range photos {
		if post.Place == nil && ph.Place != nil {
			post.Place = ph.Place
		}
		if post.People == nil && ph.People != nil {
			post.People = ph.People
		}
		if post.Place != nil && post.People != nil {
			break
		}
	}
}
