package graph

import "fmt"

// Page is one page of an edge listing. Data and Paging are nil when the
// response omitted them, which is distinct from an empty list.
type Page struct {
	Data   []Item    `json:"data"`
	Paging *Paging   `json:"paging"`
	Error  *APIError `json:"error"`
}

// Paging holds the continuation links of a listing
type Paging struct {
	Next     string   `json:"next"`
	Previous string   `json:"previous"`
	Cursors  *Cursors `json:"cursors"`
}

// Cursors are the opaque before/after tokens of a listing
type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// Ref is the {id, name} pair used for authors and tagged people
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Application identifies the app a post was published through
type Application struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Location carries coordinates. Either may be missing.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Place is a tagged location
type Place struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location"`
}

// TagList is an embedded people listing with its own paging
type TagList struct {
	Data   []Ref   `json:"data"`
	Paging *Paging `json:"paging"`
}

// Image is one rendition of a photo object
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Item is a feed entry or a looked-up object. Feed posts, photos and albums
// share enough fields that one shape serves all three.
type Item struct {
	ID          string       `json:"id"`
	From        *Ref         `json:"from"`
	Type        string       `json:"type"`
	StatusType  string       `json:"status_type"`
	Story       *string      `json:"story"`
	Message     *string      `json:"message"`
	Caption     *string      `json:"caption"`
	Name        *string      `json:"name"`
	Subject     *string      `json:"subject"`
	Description *string      `json:"description"`
	Link        string       `json:"link"`
	Picture     string       `json:"picture"`
	ObjectID    string       `json:"object_id"`
	CreatedTime string       `json:"created_time"`
	UpdatedTime string       `json:"updated_time"`
	Application *Application `json:"application"`
	Place       *Place       `json:"place"`
	WithTags    *TagList     `json:"with_tags"`
	Tags        *TagList     `json:"tags"`

	// object lookups only
	CanUpload bool    `json:"can_upload"`
	Images    []Image `json:"images"`
}

// LookupID returns the id to fetch the full object with, preferring
// object_id over the post id
func (it *Item) LookupID() string {
	if it.ObjectID != "" {
		return it.ObjectID
	}
	return it.ID
}

// Me is the /me response
type Me struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Error *APIError `json:"error"`
}

// Permissions is the /me/permissions response. Older API versions return
// a single map of permission to 1; newer ones a list of
// {permission, status} entries.
type Permissions struct {
	Data  []map[string]interface{} `json:"data"`
	Error *APIError                `json:"error"`
}

// Granted reports whether perm is present in either response shape
func (p *Permissions) Granted(perm string) bool {
	for _, entry := range p.Data {
		if name, ok := entry["permission"].(string); ok {
			if name == perm {
				status, _ := entry["status"].(string)
				return status == "" || status == "granted"
			}
			continue
		}
		if v, ok := entry[perm]; ok {
			switch n := v.(type) {
			case float64:
				return n != 0
			case bool:
				return n
			default:
				return true
			}
		}
	}
	return false
}

// FQLResult is the response of the liked-URL query
type FQLResult struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *APIError `json:"error"`
}

// APIError is the Graph error envelope
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s, code %d)", e.Message, e.Type, e.Code)
}

// IsQuotaError reports an application or user request limit
func (e *APIError) IsQuotaError() bool {
	switch e.Code {
	case 4, 17, 32, 613:
		return true
	}
	return false
}

// IsTokenError reports an expired, revoked or malformed token
func (e *APIError) IsTokenError() bool {
	return e.Code == 190 || e.Code == 102
}
