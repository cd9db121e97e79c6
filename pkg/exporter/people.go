package exporter

import (
	"context"

	"fbexport/pkg/graph"
	"fbexport/pkg/models"
)

// peoplePager walks the continuation links of a tag list. It is finite and
// cannot be restarted.
type peoplePager struct {
	s    *session
	next string
	seen map[string]bool
}

func (s *session) newPeoplePager(next string) *peoplePager {
	return &peoplePager{s: s, next: next, seen: map[string]bool{}}
}

// Next fetches one more page of people. It returns false once no page
// remains or a fetch failed; a failure ends the listing quietly.
func (p *peoplePager) Next(ctx context.Context) ([]models.Person, bool) {
	if p.next == "" || p.seen[p.next] {
		return nil, false
	}
	p.seen[p.next] = true

	signed, err := p.s.client.SignURL(p.next)
	if err != nil {
		p.next = ""
		return nil, false
	}

	var page graph.TagList
	if err := p.s.client.GetJSON(ctx, signed, &page); err != nil {
		p.s.log.WithError(err).Debug("tag list paging stopped")
		p.next = ""
		return nil, false
	}

	p.next = ""
	if page.Paging != nil {
		p.next = page.Paging.Next
	}
	return p.s.toPeople(page.Data), true
}

func (s *session) person(ref graph.Ref) models.Person {
	return models.Person{ID: ref.ID, Name: ref.Name, Avatar: s.client.AvatarURL(ref.ID)}
}

func (s *session) toPeople(refs []graph.Ref) []models.Person {
	out := make([]models.Person, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		out = append(out, s.person(ref))
	}
	return out
}

// people lists everyone on a tag list: the author of src, the embedded
// page, then any further pages. The owner is never included. A nil tag
// list yields nil.
func (s *session) people(ctx context.Context, src *graph.Item, tags *graph.TagList) []models.Person {
	if tags == nil {
		return nil
	}

	var all []models.Person
	if src.From != nil && src.From.ID != "" {
		all = append(all, s.person(*src.From))
	}
	all = append(all, s.toPeople(tags.Data)...)

	if tags.Paging != nil && tags.Paging.Next != "" {
		pager := s.newPeoplePager(tags.Paging.Next)
		for {
			batch, ok := pager.Next(ctx)
			if !ok {
				break
			}
			all = append(all, batch...)
		}
	}

	out := all[:0]
	for _, p := range all {
		if p.ID != s.ownerID {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// placeOf extracts a place. Coordinates are kept only as a pair.
func placeOf(it *graph.Item) *models.Place {
	if it == nil || it.Place == nil {
		return nil
	}
	place := &models.Place{Name: it.Place.Name}
	if loc := it.Place.Location; loc != nil && loc.Latitude != nil && loc.Longitude != nil {
		place.Coordinates = &models.Coordinates{
			Latitude:  *loc.Latitude,
			Longitude: *loc.Longitude,
		}
	}
	if place.Name == "" && place.Coordinates == nil {
		return nil
	}
	return place
}
