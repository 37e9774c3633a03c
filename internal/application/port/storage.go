package port

import (
	"context"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// InteractionStore keeps the messages posted for each (record, department) so
// they can be invalidated after a decision.
type InteractionStore interface {
	// Save appends the messages of p to whatever is stored for its key.
	Save(ctx context.Context, p entity.PendingInteraction) error

	// Get returns the stored interaction, or nil when nothing is stored.
	Get(ctx context.Context, key entity.InteractionKey) (*entity.PendingInteraction, error)

	// Delete drops the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key entity.InteractionKey) error
}
