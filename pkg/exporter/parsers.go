package exporter

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"fbexport/pkg/graph"
	"fbexport/pkg/models"

	"github.com/microcosm-cc/bluemonday"
)

const endpointFeed = "feed"

var (
	facebookLinkPattern = regexp.MustCompile(`^https?://www\.facebook\.com/.*$`)
	appsLinkPattern     = regexp.MustCompile(`^https?://apps\.facebook\.com/.*$`)
	lineBreakPattern    = regexp.MustCompile(`<br\s*?/?>`)

	notePolicy = bluemonday.StrictPolicy()
)

// endpointKinds maps each supplementary endpoint to its fixed parser
var endpointKinds = map[string]models.Kind{
	"statuses": models.KindStatus,
	"checkins": models.KindCheckin,
	"links":    models.KindLink,
	"notes":    models.KindNote,
	"videos":   models.KindVideo,
}

// source describes where an item came from. Feed items keep their own id
// and list people under with_tags; supplementary endpoints are prefixed
// with the owner id and use tags.
type source struct {
	endpoint string
	feed     bool
}

func (s *session) tagsOf(src source, it *graph.Item) *graph.TagList {
	if src.feed {
		return it.WithTags
	}
	return it.Tags
}

// parse turns a raw item into a post. A nil post with a nil error means
// the item is not exported.
func (s *session) parse(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	var kind models.Kind
	if src.feed {
		kind = s.classify(ctx, it)
	} else {
		kind = endpointKinds[src.endpoint]
	}

	// story-only statuses such as friendship notices
	if kind == models.KindStatus && firstOf(it.Message) == nil {
		return nil, nil
	}

	var (
		post *models.Post
		err  error
	)
	switch kind {
	case models.KindStatus:
		post, err = s.parseStatus(ctx, src, it)
	case models.KindLink:
		post, err = s.parseLink(ctx, src, it)
	case models.KindNote:
		post, err = s.parseNote(ctx, src, it)
	case models.KindAlbum:
		post, err = s.parseAlbum(ctx, src, it)
	case models.KindMultiCheckinPhoto:
		post, err = s.parseMultiCheckin(ctx, src, it)
	case models.KindTaggedPhoto:
		post, err = s.parseTaggedPhoto(ctx, src, it)
	case models.KindPhoto:
		post, err = s.parsePhoto(ctx, src, it)
	case models.KindCheckin:
		post, err = s.parseCheckin(ctx, src, it)
	case models.KindVideo:
		post, err = s.parseVideo(ctx, src, it)
	default:
		return nil, nil
	}
	if err != nil || post == nil {
		return nil, err
	}

	post.Message, post.Caption = firstOf(post.Message), firstOf(post.Caption)
	if post.Message == nil && post.Caption == nil && len(post.Links) == 0 && len(post.Photos) == 0 {
		s.log.DebugWithFields("empty post dropped", map[string]interface{}{
			"id":   post.ID,
			"kind": post.Kind.String(),
		})
		return nil, nil
	}
	return post, nil
}

// newPost fills the fields every kind shares
func (s *session) newPost(src source, it *graph.Item, kind models.Kind) (*models.Post, error) {
	created, updated, err := graph.ItemTimes(it)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", it.ID, err)
	}

	id := it.ID
	if !src.feed {
		id = fmt.Sprintf("%s_%s", s.ownerID, it.ID)
	}

	post := &models.Post{
		ID:          id,
		Kind:        kind,
		CreatedTime: created,
		UpdatedTime: updated,
		Links:       []string{},
		Photos:      []string{},
		FromMe:      it.From != nil && it.From.ID == s.ownerID,
	}
	if it.Application != nil {
		post.Application = it.Application.Name
	}
	return post, nil
}

func firstOf(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}

func (s *session) appendPicture(ctx context.Context, post *models.Post, picture string) {
	if p, ok := s.resolveImage(ctx, picture); ok {
		post.Photos = append(post.Photos, p)
	}
}

func absoluteLink(link string) string {
	if strings.HasPrefix(link, "/") {
		return graph.FacebookHost + link
	}
	return link
}

func (s *session) parseStatus(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindStatus)
	if err != nil {
		return nil, err
	}
	post.Message = it.Message
	post.Caption = it.Caption
	if it.Link != "" {
		post.Links = append(post.Links, it.Link)
	}
	post.Place = placeOf(it)
	post.People = s.people(ctx, it, s.tagsOf(src, it))
	s.appendPicture(ctx, post, it.Picture)
	return post, nil
}

func (s *session) parseAlbum(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindAlbum)
	if err != nil {
		return nil, err
	}
	// an album caption is only the photo count
	post.Message = it.Message
	post.Place = placeOf(it)
	post.People = s.people(ctx, it, it.WithTags)

	albumID := submatch(albumPattern, it.Link)
	if albumID == "" {
		s.log.WarnWithFields("Unable to find album set id from link", map[string]interface{}{
			"id":   post.ID,
			"link": it.Link,
		})
		return post, nil
	}
	s.attachAlbum(ctx, post, albumID)
	return post, nil
}

// parseMultiCheckin has no direct way to the checkin photos, so it takes
// every album photo close to the post's time
func (s *session) parseMultiCheckin(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindMultiCheckinPhoto)
	if err != nil {
		return nil, err
	}
	post.Message = it.Message
	post.Place = placeOf(it)
	post.People = s.people(ctx, it, s.tagsOf(src, it))

	albumID := ""
	if photoID := submatch(photoFbidPattern, it.Link); photoID != "" {
		if photo, err := s.object(ctx, photoID); err == nil {
			albumID = submatch(albumPattern, photo.Link)
		}
	} else {
		albumID = firstNonEmpty(submatch(albumPattern, it.Link), submatch(multiCheckinPattern, it.Link))
	}

	if albumID == "" {
		s.log.WarnWithFields("Unable to find album id for checkin photos", map[string]interface{}{
			"id":   post.ID,
			"link": it.Link,
		})
		return post, nil
	}
	s.attachAlbum(ctx, post, albumID)
	return post, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *session) parseTaggedPhoto(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindTaggedPhoto)
	if err != nil {
		return nil, err
	}
	post.Message = firstOf(it.Message, it.Story)

	info := it
	if obj, err := s.object(ctx, it.LookupID()); err == nil {
		info = obj
		if obj.From != nil && obj.From.ID != "" && obj.From.ID != s.ownerID {
			post.FromMe = false
		}
	}
	post.Place = placeOf(info)
	post.People = s.people(ctx, info, info.Tags)
	post.Photos = s.photoOf(ctx, it)
	return post, nil
}

func (s *session) parsePhoto(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindPhoto)
	if err != nil {
		return nil, err
	}
	post.Message = it.Message
	post.Caption = it.Caption
	post.Place = placeOf(it)
	post.People = s.people(ctx, it, it.WithTags)
	post.Photos = s.photoOf(ctx, it)
	return post, nil
}

// parseLink keeps only shared links. Facebook-internal links expose their
// description as caption; app links are dropped.
func (s *session) parseLink(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	if it.Story != nil && !strings.HasSuffix(*it.Story, "shared a link.") {
		return nil, nil
	}

	post, err := s.newPost(src, it, models.KindLink)
	if err != nil {
		return nil, err
	}
	post.Message = it.Message
	post.LinkName = it.Name
	post.LinkDescription = it.Description
	if it.Picture != "" {
		post.LinkPicture = stripSafeImage(it.Picture)
	}

	if it.Link != "" {
		link := absoluteLink(it.Link)
		switch {
		case facebookLinkPattern.MatchString(link):
			post.Links = append(post.Links, link)
			post.Caption = it.Description
		case appsLinkPattern.MatchString(link):
		default:
			post.Links = append(post.Links, link)
		}
	}

	if len(post.Links) == 0 {
		s.appendPicture(ctx, post, it.Picture)
	}
	if len(post.Links) == 0 && len(post.Photos) == 0 {
		return nil, nil
	}
	return post, nil
}

func (s *session) parseNote(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindNote)
	if err != nil {
		return nil, err
	}
	post.Message = firstOf(it.Name, it.Subject)
	if content := firstOf(it.Description, it.Message); content != nil {
		post.Caption = models.StrPtr(noteText(*content))
	}

	if it.Link != "" {
		if link := absoluteLink(it.Link); !facebookLinkPattern.MatchString(link) {
			post.Links = append(post.Links, link)
		}
	}
	s.appendPicture(ctx, post, it.Picture)
	return post, nil
}

// noteText converts note markup to plain text. Line breaks survive as
// newlines; anything else, well-formed or not, is stripped.
func noteText(content string) string {
	content = lineBreakPattern.ReplaceAllString(content, "\n")
	return html.UnescapeString(notePolicy.Sanitize(content))
}

func (s *session) parseVideo(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindVideo)
	if err != nil {
		return nil, err
	}
	post.Message = firstOf(it.Message, it.Name)

	if src.feed {
		if it.Link != "" {
			post.Links = append(post.Links, it.Link)
		}
		info := it
		if obj, err := s.object(ctx, it.LookupID()); err == nil {
			info = obj
		}
		post.People = s.people(ctx, info, info.Tags)
	} else {
		post.Links = append(post.Links, fmt.Sprintf("https://www.facebook.com/photo.php?v=%s", it.ID))
		post.People = s.people(ctx, it, it.WithTags)
	}
	s.appendPicture(ctx, post, it.Picture)
	return post, nil
}

func (s *session) parseCheckin(ctx context.Context, src source, it *graph.Item) (*models.Post, error) {
	post, err := s.newPost(src, it, models.KindCheckin)
	if err != nil {
		return nil, err
	}
	post.Message = it.Message
	post.Caption = it.Caption
	if !src.feed && firstOf(it.Caption) == nil && it.Place != nil && it.Place.Name != "" {
		post.Caption = models.StrPtr("checked in at " + it.Place.Name)
	}
	post.Place = placeOf(it)
	post.People = s.people(ctx, it, s.tagsOf(src, it))

	if it.ObjectID == "" {
		return post, nil
	}
	obj, err := s.object(ctx, it.ObjectID)
	if err != nil {
		return post, nil
	}
	if albumID := submatch(albumPattern, obj.Link); albumID != "" {
		s.log.InfoWithFields("found an album for checkin", map[string]interface{}{
			"id":       post.ID,
			"album_id": albumID,
		})
		s.attachAlbum(ctx, post, albumID)
	}
	return post, nil
}
