package ports

import (
	"context"

	"github.com/samirrijal/walkies/internal/core/domain"
)

// ReferenceSpaceRepository stores the read-only default spaces every new
// session is seeded with.
type ReferenceSpaceRepository interface {
	List(ctx context.Context) ([]domain.Space, error)
	UpsertBatch(ctx context.Context, spaces []domain.Space) error
}

// SessionStore holds live sessions in memory. Update runs fn with exclusive
// access to the session.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) error
	Delete(ctx context.Context, id string) error
	Len() int
}
