package port

import (
	"context"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

type EventPublisher interface {
	// PublishResults announces committed allocation results downstream
	PublishResults(ctx context.Context, results []domain.AllocationResult) error
}
