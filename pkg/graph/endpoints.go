package graph

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the Graph API root
	DefaultBaseURL = "https://graph.facebook.com/"

	// FacebookHost is the web host that permalinks point at
	FacebookHost = "http://www.facebook.com"
)

// EdgeURL builds /me/<edge> with the given query on top of the token
func (c *Client) EdgeURL(edge string, query url.Values) string {
	return c.sign(fmt.Sprintf("%sme/%s", c.baseURL, edge), query)
}

// MeURL builds the /me URL used to resolve the owner id
func (c *Client) MeURL() string {
	return c.sign(c.baseURL+"me", nil)
}

// PermissionsURL builds /me/permissions
func (c *Client) PermissionsURL() string {
	return c.sign(c.baseURL+"me/permissions", nil)
}

// ObjectURL builds the lookup URL of a single object (album, photo, ...)
func (c *Client) ObjectURL(id string) string {
	return c.sign(c.baseURL+url.PathEscape(id), nil)
}

// AlbumPhotosURL builds one offset/limit page of an album's photos
func (c *Client) AlbumPhotosURL(albumID string, offset, limit int) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return c.sign(fmt.Sprintf("%s%s/photos", c.baseURL, url.PathEscape(albumID)), q)
}

// FQLURL builds an FQL query URL
func (c *Client) FQLURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	return c.sign(c.baseURL+"fql", q)
}

// AvatarURL is the picture URL of a person. It is derived from the id
// alone and carries no token.
func (c *Client) AvatarURL(id string) string {
	return fmt.Sprintf("%s%s/picture", c.baseURL, id)
}

// SignURL adds the access token to a URL handed back by the API, such as a
// paging link, unless it already carries one
func (c *Client) SignURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid paging URL: %w", err)
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		q.Set("access_token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) sign(base string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("access_token", c.token)
	return base + "?" + q.Encode()
}

// TimeBounds translates a crawl window into edge query parameters. The
// window runs backwards, so its newer bound goes out as the API's "until"
// and its older bound as the API's "since". Zero times are omitted.
func TimeBounds(newer, older time.Time) url.Values {
	q := url.Values{}
	if !newer.IsZero() {
		q.Set("until", strconv.FormatInt(newer.Unix(), 10))
	}
	if !older.IsZero() {
		q.Set("since", strconv.FormatInt(older.Unix(), 10))
	}
	return q
}

// AfterCursor builds the query of an opaque-cursor request. An empty cursor
// is sent as an empty "after" parameter, which starts from the first page.
func AfterCursor(after string) url.Values {
	q := url.Values{}
	q.Set("after", after)
	return q
}

// NextCursor inspects a paging "next" link. It returns the time cursor when
// the link carries "until", otherwise the opaque "after" token. ok is false
// when the link carries neither.
func NextCursor(next string) (until time.Time, after string, ok bool, err error) {
	u, err := url.Parse(next)
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("invalid paging URL: %w", err)
	}
	q := u.Query()
	if v := q.Get("until"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, "", false, fmt.Errorf("invalid until cursor %q: %w", v, err)
		}
		return time.Unix(sec, 0), "", true, nil
	}
	if v := q.Get("after"); v != "" {
		return time.Time{}, v, true, nil
	}
	return time.Time{}, "", false, nil
}
