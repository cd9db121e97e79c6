package models

import (
	"encoding/json"
	"fmt"
	"time"

	"fbexport/pkg/errors"
)

// Kind is the canonical classification of a feed item
type Kind int

const (
	KindNone Kind = iota
	KindStatus
	KindLink
	KindNote
	KindAlbum
	KindMultiCheckinPhoto
	KindTaggedPhoto
	KindPhoto
	KindCheckin
	KindVideo
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindStatus:            "status",
	KindLink:              "link",
	KindNote:              "note",
	KindAlbum:             "album",
	KindMultiCheckinPhoto: "multi_checkin_photo",
	KindTaggedPhoto:       "tagged_photo",
	KindPhoto:             "photo",
	KindCheckin:           "checkin",
	KindVideo:             "video",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of String
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown kind %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Person is someone tagged in a post. Avatar is derived from ID.
type Person struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a named location. Coordinates are present only when the API
// supplied both values.
type Place struct {
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Post is one normalised record. It is built once by a parser and not
// modified after it enters a Store.
type Post struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Message     *string   `json:"message,omitempty"`
	Caption     *string   `json:"caption,omitempty"`
	CreatedTime time.Time `json:"created_time"`
	UpdatedTime time.Time `json:"updated_time"`
	Links       []string  `json:"links"`
	Photos      []string  `json:"photos"`
	People      []Person  `json:"people,omitempty"`
	Place       *Place    `json:"place,omitempty"`
	Application string    `json:"application,omitempty"`
	FromMe      bool      `json:"from_me"`

	// Link posts also expose the link's own title, description and preview
	LinkName        *string `json:"link_name,omitempty"`
	LinkDescription *string `json:"link_description,omitempty"`
	LinkPicture     string  `json:"link_picture,omitempty"`
}

// Window bounds a crawl. Since is the newer bound and Until the older one;
// the crawl walks backwards from Since to Until. A zero value is unbounded.
type Window struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether t lies within [Until, Since]
func (w Window) Contains(t time.Time) bool {
	if !w.Until.IsZero() && t.Before(w.Until) {
		return false
	}
	if !w.Since.IsZero() && t.After(w.Since) {
		return false
	}
	return true
}

// Validate rejects a window whose newer bound is older than its older bound
func (w Window) Validate() error {
	if !w.Since.IsZero() && !w.Until.IsZero() && w.Since.Before(w.Until) {
		return fmt.Errorf("since (%s) cannot be older than until (%s)",
			w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	}
	return nil
}

// Result is what one export call produces. Data may be non-empty even when
// Code is a failure.
type Result struct {
	Code  errors.Code      `json:"code"`
	Count int              `json:"count"`
	Data  map[string]*Post `json:"data"`
}

// StrPtr returns a pointer to a copy of s
func StrPtr(s string) *string {
	return &s
}
