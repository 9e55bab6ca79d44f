package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// IndexAdmin exposes the index management half of the search store.
type IndexAdmin interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string) error
}

// Provisioner ensures indices exist before any document is written to them.
// Repeated Ensure calls for the same index are deduplicated.
type Provisioner struct {
	admin  IndexAdmin
	seen   map[string]struct{}
	logger zerolog.Logger
}

// NewProvisioner constructs a Provisioner over the given admin.
func NewProvisioner(admin IndexAdmin, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		admin:  admin,
		seen:   make(map[string]struct{}),
		logger: logger.With().Str("component", "provisioner").Logger(),
	}
}

// Ensure creates the index if it is absent. It is idempotent: an index that
// already exists is left untouched and no error is returned.
func (p *Provisioner) Ensure(ctx context.Context, index string) error {
	if index == "" {
		return fmt.Errorf("index id must not be empty")
	}
	if _, ok := p.seen[index]; ok {
		return nil
	}

	exists, err := p.admin.IndexExists(ctx, index)
	if err != nil {
		return fmt.Errorf("ensure index %s: %w", index, err)
	}
	if !exists {
		if err := p.admin.CreateIndex(ctx, index); err != nil {
			return fmt.Errorf("ensure index %s: %w", index, err)
		}
		p.logger.Info().Str("index", index).Msg("index created")
	}

	p.seen[index] = struct{}{}
	return nil
}
