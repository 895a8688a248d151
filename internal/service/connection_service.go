package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

type AccountStatus struct {
	Platform  models.Platform `json:"platform"`
	Connected bool            `json:"connected"`
	Account   string          `json:"account,omitempty"`
}

// ConnectionService reports which publishing targets a user can currently
// reach. The primary listing link lives on the user profile; every other
// platform is a social account.
type ConnectionService struct {
	ur  repository.UserRepository
	sa  repository.SocialAccountRepository
	now func() time.Time
}

func NewConnectionService(ur repository.UserRepository, sa repository.SocialAccountRepository) *ConnectionService {
	return &ConnectionService{ur: ur, sa: sa, now: time.Now}
}

func (s *ConnectionService) Accounts(ctx context.Context, userID int64) ([]AccountStatus, error) {
	user, _, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load social accounts: %w", err)
	}

	byPlatform := make(map[models.Platform]AccountStatus, len(models.Platforms()))
	if user.ListingConnected() {
		byPlatform[models.PlatformPrimaryListing] = AccountStatus{
			Platform:  models.PlatformPrimaryListing,
			Connected: true,
			Account:   user.ListingAccount,
		}
	}

	now := s.now()
	for _, acc := range accounts {
		if acc.Platform == models.PlatformPrimaryListing || byPlatform[acc.Platform].Connected {
			continue
		}
		byPlatform[acc.Platform] = AccountStatus{
			Platform:  acc.Platform,
			Connected: acc.Connected(now),
			Account:   acc.AccountUsername,
		}
	}

	out := make([]AccountStatus, 0, len(models.Platforms()))
	for _, p := range models.Platforms() {
		st, ok := byPlatform[p]
		if !ok {
			st = AccountStatus{Platform: p}
		}
		out = append(out, st)
	}
	return out, nil
}

// Status implements composer.Connections.
func (s *ConnectionService) Status(ctx context.Context, userID int64) (map[models.Platform]bool, error) {
	accounts, err := s.Accounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Platform]bool, len(accounts))
	for _, a := range accounts {
		out[a.Platform] = a.Connected
	}
	return out, nil
}

// Disconnect unlinks the user's account on the platform. Scheduled posts keep
// their targets and fail at delivery time.
func (s *ConnectionService) Disconnect(ctx context.Context, userID int64, platform models.Platform) error {
	if !models.IsValidPlatform(string(platform)) {
		return &composer.ValidationError{Field: "platform", Message: fmt.Sprintf("unknown platform %q", platform)}
	}

	if platform == models.PlatformPrimaryListing {
		if err := s.ur.SetListing(ctx, userID, "", ""); err != nil {
			return fmt.Errorf("unlink listing: %w", err)
		}
		return nil
	}

	removed, err := s.sa.RemoveByPlatform(ctx, userID, platform)
	if err != nil {
		return fmt.Errorf("remove social account: %w", err)
	}
	if removed == 0 {
		return &composer.ValidationError{Field: "platform", Message: fmt.Sprintf("%s is not connected", platform)}
	}
	return nil
}
