package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// ErrNoTimestamp is returned when an item carries neither created_time nor
// updated_time
var ErrNoTimestamp = errors.New("no time info in item")

// ParseTime parses a Graph timestamp. The API has used ISO-8601 with a
// numeric offset, RFC 3339 and unix seconds over the years.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q: %w", s, err)
	}
	return t, nil
}

// ItemTimes returns created and updated time of an item, each backfilled
// from the other when missing
func ItemTimes(it *Item) (created, updated time.Time, err error) {
	createdRaw, updatedRaw := it.CreatedTime, it.UpdatedTime
	if createdRaw == "" {
		createdRaw = updatedRaw
	}
	if updatedRaw == "" {
		updatedRaw = createdRaw
	}
	if createdRaw == "" {
		return time.Time{}, time.Time{}, ErrNoTimestamp
	}

	if created, err = ParseTime(createdRaw); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if updated, err = ParseTime(updatedRaw); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return created, updated, nil
}
