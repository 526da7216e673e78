package report

import (
	"context"

	"github.com/ignite/adlens/internal/domain"
)

// Repository persists report records and, when no object store is
// configured, the rendered bytes.
type Repository interface {
	Create(ctx context.Context, r *domain.Report) error
	// CreateWithBlob stores the record and its bytes atomically.
	CreateWithBlob(ctx context.Context, r *domain.Report, data []byte) error
	Get(ctx context.Context, workspaceID, id string) (*domain.Report, error)
	List(ctx context.Context, workspaceID string) ([]domain.Report, error)
	Blob(ctx context.Context, reportID string) ([]byte, error)
}
