package exporter

import (
	"context"
	"regexp"

	"fbexport/pkg/graph"
	"fbexport/pkg/models"
)

const statusTypeTaggedInPhoto = "tagged_in_photo"

var (
	multiCheckinPattern = regexp.MustCompile(`^https?://www\.facebook\.com/photo\.php\?.+&set=pcb\.(\d+?)[.&]`)
	albumPattern        = regexp.MustCompile(`^https?://www\.facebook\.com/photo\.php\?.+&set=a\.(\d+?)\.`)
	photoFbidPattern    = regexp.MustCompile(`^https?://www\.facebook\.com/photo\.php[?&]fbid=(\d+?)&`)
)

// submatch returns the first capture group of re in s, or ""
func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// classify picks the parser for a primary feed item. KindNone means the
// item is skipped.
func (s *session) classify(ctx context.Context, it *graph.Item) models.Kind {
	switch it.Type {
	case "status":
		return models.KindStatus
	case "link":
		if it.Application != nil && it.Application.ID == s.cfg.Crawl.NoteAppID {
			return models.KindNote
		}
		return models.KindLink
	case "photo":
		return s.classifyPhoto(ctx, it)
	case "checkin":
		return models.KindCheckin
	default:
		// feed videos are not exported; the videos endpoint has its own parser
		return models.KindNone
	}
}

// classifyPhoto orders its checks cheapest first. Only the album rule
// costs a lookup.
func (s *session) classifyPhoto(ctx context.Context, it *graph.Item) models.Kind {
	if it.StatusType == statusTypeTaggedInPhoto {
		return models.KindTaggedPhoto
	}
	if multiCheckinPattern.MatchString(it.Link) {
		return models.KindMultiCheckinPhoto
	}

	albumID := submatch(albumPattern, it.Link)
	if albumID == "" {
		return models.KindPhoto
	}

	album, err := s.object(ctx, albumID)
	if err != nil {
		return models.KindPhoto
	}
	if album.Type != "" && album.Type == s.cfg.Album.MobileAlbumType {
		return models.KindMultiCheckinPhoto
	}
	if s.isUserAlbum(album) {
		return models.KindAlbum
	}
	return models.KindPhoto
}

// isUserAlbum tells a real user album from system collections such as
// wall or timeline photos. Both checks can be switched off.
func (s *session) isUserAlbum(album *graph.Item) bool {
	opts := s.cfg.Album
	if opts.RequireOwner && (album.From == nil || album.From.ID != s.ownerID) {
		return false
	}
	if opts.RequireCanUpload && !album.CanUpload {
		return false
	}
	return true
}
