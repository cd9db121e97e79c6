package exporter

import (
	"context"
	"testing"

	"fbexport/pkg/models"

	"github.com/stretchr/testify/assert"
)

const albumLink = "https://www.facebook.com/photo.php?fbid=9&set=a.12345.67&type=1"

func photoItem(link, statusType string) map[string]interface{} {
	return map[string]interface{}{
		"id":           "100_1",
		"type":         "photo",
		"status_type":  statusType,
		"from":         from(testOwner),
		"link":         link,
		"created_time": "2012-04-01T10:00:00Z",
	}
}

func TestClassifyPhoto(t *testing.T) {
	tests := []struct {
		name       string
		link       string
		statusType string
		album      map[string]interface{}
		want       models.Kind
		wantLookup bool
	}{
		{
			name:       "tagged in photo wins before any lookup",
			link:       albumLink,
			statusType: "tagged_in_photo",
			want:       models.KindTaggedPhoto,
		},
		{
			name: "multi photo checkin link",
			link: "https://www.facebook.com/photo.php?fbid=9&set=pcb.555.1&type=1",
			want: models.KindMultiCheckinPhoto,
		},
		{
			name:       "owned uploadable album",
			link:       albumLink,
			album:      map[string]interface{}{"id": "12345", "from": from(testOwner), "can_upload": true},
			want:       models.KindAlbum,
			wantLookup: true,
		},
		{
			name:       "mobile uploads album",
			link:       albumLink,
			album:      map[string]interface{}{"id": "12345", "type": "mobile", "from": from(testOwner), "can_upload": true},
			want:       models.KindMultiCheckinPhoto,
			wantLookup: true,
		},
		{
			name:       "system album is a plain photo",
			link:       albumLink,
			album:      map[string]interface{}{"id": "12345", "type": "wall", "from": from(testOwner), "can_upload": false},
			want:       models.KindPhoto,
			wantLookup: true,
		},
		{
			name:       "someone else's album",
			link:       albumLink,
			album:      map[string]interface{}{"id": "12345", "from": from("200"), "can_upload": true},
			want:       models.KindPhoto,
			wantLookup: true,
		},
		{
			name: "unrelated link",
			link: "https://example.com/pic.jpg",
			want: models.KindPhoto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGraph(t)
			if tt.album != nil {
				g.json("/12345", tt.album)
			}
			s := newTestSession(t, g, testConfig(g), nil)

			got := s.classify(context.Background(), decodeItem(t, photoItem(tt.link, tt.statusType)))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLookup, g.hitCount("/12345") > 0)
		})
	}
}

func TestClassifyAlbumHeuristicIsConfigurable(t *testing.T) {
	g := newFakeGraph(t)
	g.json("/12345", map[string]interface{}{"id": "12345", "from": from(testOwner), "can_upload": false})

	cfg := testConfig(g)
	cfg.Album.RequireCanUpload = false
	s := newTestSession(t, g, cfg, nil)

	assert.Equal(t, models.KindAlbum, s.classify(context.Background(), decodeItem(t, photoItem(albumLink, ""))))
}

func TestClassifyByType(t *testing.T) {
	g := newFakeGraph(t)
	s := newTestSession(t, g, testConfig(g), nil)
	ctx := context.Background()

	item := func(typ string, app map[string]interface{}) map[string]interface{} {
		m := map[string]interface{}{"id": "1", "type": typ, "from": from(testOwner)}
		if app != nil {
			m["application"] = app
		}
		return m
	}

	assert.Equal(t, models.KindStatus, s.classify(ctx, decodeItem(t, item("status", nil))))
	assert.Equal(t, models.KindLink, s.classify(ctx, decodeItem(t, item("link", map[string]interface{}{"id": "1", "name": "Other"}))))
	assert.Equal(t, models.KindNote, s.classify(ctx, decodeItem(t, item("link", map[string]interface{}{"id": "2347471856", "name": "Notes"}))))
	assert.Equal(t, models.KindCheckin, s.classify(ctx, decodeItem(t, item("checkin", nil))))
	assert.Equal(t, models.KindNone, s.classify(ctx, decodeItem(t, item("video", nil))))
	assert.Equal(t, models.KindNone, s.classify(ctx, decodeItem(t, item("question", nil))))
}
