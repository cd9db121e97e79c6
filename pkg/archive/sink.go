package archive

import (
	"context"

	"fbexport/pkg/models"
)

// Sink receives the result of an export
type Sink interface {
	Write(ctx context.Context, res *models.Result) error
	Close() error
}

// Multi fans a result out to several sinks, stopping at the first error
type Multi []Sink

// Write writes res to every sink in order
func (m Multi) Write(ctx context.Context, res *models.Result) error {
	for _, s := range m {
		if err := s.Write(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
