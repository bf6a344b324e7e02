package sources

import (
	"context"
	"time"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// Source is a platform the bot collects items from.
type Source interface {
	GetName() string
	IsEnabled() bool
	FetchItems(ctx context.Context, window time.Duration) ([]models.Item, error)
}
