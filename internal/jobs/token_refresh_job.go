package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

// refreshWindow is how far ahead of expiry long-lived tokens are renewed.
const refreshWindow = 7 * 24 * time.Hour

// TokenRefresher renews the stored access token of one account.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, acc *models.SocialAccount) error
}

// TokenRefreshJob renews expiring access tokens of platforms that hand out
// long-lived tokens without a refresh token.
type TokenRefreshJob struct {
	sr         repository.SocialAccountRepository
	refreshers map[models.Platform]TokenRefresher
	now        func() time.Time
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, refreshers map[models.Platform]TokenRefresher) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:         sr,
		refreshers: refreshers,
		now:        time.Now,
	}
}

// RefreshTokens returns how many accounts were renewed.
func (c *TokenRefreshJob) RefreshTokens() int {
	ctx := context.Background()
	before := c.now().Add(refreshWindow)

	var wg sync.WaitGroup
	var mu sync.Mutex
	refreshed := 0

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for platform, refresher := range c.refreshers {
		accounts, err := c.sr.ListExpiring(ctx, platform, before)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		for _, acc := range accounts {
			// an expired token cannot be exchanged any more
			if !acc.TokenExpiresAt.After(c.now()) {
				continue
			}

			wg.Add(1)
			semaphore <- struct{}{}

			go func(refresher TokenRefresher, acc *models.SocialAccount) {
				defer wg.Done()
				defer func() { <-semaphore }()

				if err := refresher.RefreshToken(ctx, acc); err != nil {
					slog.Info("unable to refresh token", "platform", acc.Platform, "account", acc.ID, "error", err)
					return
				}
				mu.Lock()
				refreshed++
				mu.Unlock()
			}(refresher, acc)
		}
	}

	wg.Wait()
	return refreshed
}
