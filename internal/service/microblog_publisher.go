package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/pkg/utils"
)

const microblogMaxRunes = 280

type MicroblogPublisher struct {
	baseURL string
	secret  []byte
	sa      repository.SocialAccountRepository
	client  *http.Client
}

func NewMicroblogPublisher(baseURL, secretKey string, sa repository.SocialAccountRepository) *MicroblogPublisher {
	return &MicroblogPublisher{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secretKey),
		sa:      sa,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (p *MicroblogPublisher) Platform() models.Platform {
	return models.PlatformMicroblog
}

// microblogText appends the media link on its own line.
func microblogText(post *models.Post) string {
	if post.MediaURL == "" {
		return post.Content
	}
	return post.Content + "\n" + post.MediaURL
}

func (p *MicroblogPublisher) Publish(ctx context.Context, post *models.Post) (string, error) {
	acc, err := p.sa.GetByPlatform(ctx, post.UserID, models.PlatformMicroblog)
	if err != nil {
		return "", fmt.Errorf("load account: %w", err)
	}
	if !acc.Connected(time.Now()) {
		return "", ErrNotConnected
	}

	text := microblogText(post)
	if n := utf8.RuneCountInString(text); n > microblogMaxRunes {
		return "", fmt.Errorf("post is %d characters, the limit is %d", n, microblogMaxRunes)
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, p.secret)
	if err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/tweets", accessToken, map[string]string{"text": text}, &result); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return result.Data.ID, nil
}
