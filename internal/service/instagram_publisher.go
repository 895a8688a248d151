package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/pkg/utils"
)

const instagramGraphVersion = "v21.0"

// InstagramPublisher delivers photo_network posts through the Graph API
// container flow: create a media container, wait for video processing, then
// publish it.
type InstagramPublisher struct {
	baseURL      string
	secret       []byte
	sa           repository.SocialAccountRepository
	client       *http.Client
	pollEvery    time.Duration
	pollAttempts int
}

func NewInstagramPublisher(baseURL, secretKey string, sa repository.SocialAccountRepository) *InstagramPublisher {
	return &InstagramPublisher{
		baseURL:      strings.TrimRight(baseURL, "/"),
		secret:       []byte(secretKey),
		sa:           sa,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollEvery:    5 * time.Second,
		pollAttempts: 24,
	}
}

func (p *InstagramPublisher) Platform() models.Platform {
	return models.PlatformPhotoNetwork
}

func (p *InstagramPublisher) graphURL(parts ...string) string {
	return p.baseURL + "/" + instagramGraphVersion + "/" + strings.Join(parts, "/")
}

func (p *InstagramPublisher) Publish(ctx context.Context, post *models.Post) (string, error) {
	acc, err := p.sa.GetByPlatform(ctx, post.UserID, models.PlatformPhotoNetwork)
	if err != nil {
		return "", fmt.Errorf("load account: %w", err)
	}
	if !acc.Connected(time.Now()) {
		return "", ErrNotConnected
	}
	if post.MediaURL == "" {
		return "", errors.New("photo_network posts need an image or a video")
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, p.secret)
	if err != nil {
		return "", err
	}

	container := map[string]any{
		"caption":      post.Content,
		"access_token": accessToken,
	}
	if post.MediaKind == models.MediaKindVideo {
		container["media_type"] = "REELS"
		container["video_url"] = post.MediaURL
	} else {
		container["image_url"] = post.MediaURL
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := doJSON(ctx, p.client, http.MethodPost, p.graphURL(acc.AccountID, "media"), "", container, &created); err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}

	if post.MediaKind == models.MediaKindVideo {
		if err := p.waitForContainer(ctx, created.ID, accessToken); err != nil {
			return "", err
		}
	}

	var published struct {
		ID string `json:"id"`
	}
	payload := map[string]any{"creation_id": created.ID, "access_token": accessToken}
	if err := doJSON(ctx, p.client, http.MethodPost, p.graphURL(acc.AccountID, "media_publish"), "", payload, &published); err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}
	return published.ID, nil
}

func (p *InstagramPublisher) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	q := url.Values{"fields": {"status_code"}, "access_token": {accessToken}}
	statusURL := p.graphURL(containerID) + "?" + q.Encode()

	for i := 0; i < p.pollAttempts; i++ {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		if err := doJSON(ctx, p.client, http.MethodGet, statusURL, "", nil, &status); err != nil {
			return fmt.Errorf("container status: %w", err)
		}

		switch status.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("video processing ended with %s", status.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollEvery):
		}
	}
	return errors.New("video processing did not finish in time")
}

// RefreshToken extends a long-lived access token and stores the new one.
func (p *InstagramPublisher) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, p.secret)
	if err != nil {
		return err
	}

	q := url.Values{"grant_type": {"ig_refresh_token"}, "access_token": {accessToken}}
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := doJSON(ctx, p.client, http.MethodGet, p.baseURL+"/refresh_access_token?"+q.Encode(), "", nil, &result); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("refresh instagram token: %w", err)
	}

	encrypted, err := utils.Encrypt([]byte(result.AccessToken), p.secret)
	if err != nil {
		return err
	}
	return p.sa.SetToken(ctx, acc.ID, encrypted, GetExpiresAt(int(result.ExpiresIn)))
}
