package session

import (
	"context"

	"github.com/desertthunder/sonar/internal/models"
)

// Journal records session history. Failures are logged and never change session state.
type Journal interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}
