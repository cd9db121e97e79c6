package exporter

import (
	"context"
	"net/url"
	"regexp"

	"fbexport/pkg/graph"
	"fbexport/pkg/storage"
)

// sizeSuffixPattern matches the size marker before the extension, as in
// the "_s" of img_s.jpg
var sizeSuffixPattern = regexp.MustCompile(`(_\w)(\.\w+?$)`)

// stripSafeImage unwraps a safe_image.php proxy link to the image it
// points at
func stripSafeImage(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Path != "/safe_image.php" {
		return uri
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return uri
}

// originalSizeURL rewrites the size marker to the original-size "_o"
func originalSizeURL(uri string) (string, bool) {
	if !sizeSuffixPattern.MatchString(uri) {
		return "", false
	}
	return sizeSuffixPattern.ReplaceAllString(uri, "_o${2}"), true
}

// resolveImage downloads the best available version of an image and
// returns its local path. The original-size rendition is tried first, then
// the URL as given. A failed download yields no photo, never an error.
func (s *session) resolveImage(ctx context.Context, uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	uri = stripSafeImage(uri)

	if orig, ok := originalSizeURL(uri); ok {
		if p, ok := s.storeImage(ctx, orig); ok {
			return p, true
		}
	}
	return s.storeImage(ctx, uri)
}

func (s *session) storeImage(ctx context.Context, uri string) (string, bool) {
	data, err := s.client.Download(ctx, uri)
	if err != nil {
		s.log.WithError(err).DebugWithFields("image download failed", map[string]interface{}{
			"url": uri,
		})
		return "", false
	}

	p, err := s.photos.SavePhoto(data, storage.ExtensionFromURL(uri))
	if err != nil {
		s.log.WithError(err).WarnWithFields("unable to store image", map[string]interface{}{
			"url": uri,
		})
		return "", false
	}
	return p, true
}

// sizedImageURL returns the preferred rendition of a photo. Items that do
// not carry their renditions are looked up first.
func (s *session) sizedImageURL(ctx context.Context, it *graph.Item) string {
	images := it.Images
	if len(images) == 0 {
		obj, err := s.object(ctx, it.LookupID())
		if err != nil {
			return ""
		}
		images = obj.Images
	}
	return pickRendition(images, s.sizeIndex)
}

func pickRendition(images []graph.Image, idx int) string {
	if len(images) > idx {
		return images[idx].Source
	}
	return ""
}

// photoOf resolves the photo of a single-photo post, falling back to the
// feed's own picture when no rendition is known
func (s *session) photoOf(ctx context.Context, it *graph.Item) []string {
	uri := s.sizedImageURL(ctx, it)
	if uri == "" {
		uri = it.Picture
	}

	if p, ok := s.resolveImage(ctx, uri); ok {
		return []string{p}
	}
	return []string{}
}
