package port

import "metamon_player/internal/domain/entity"

// ProgressProvider exposes a snapshot of the running batch.
type ProgressProvider interface {
	Progress() entity.BatchProgress
}
