package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/pkg/utils"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	YoutubeUploadScope = "https://www.googleapis.com/auth/youtube.upload"
	youtubeTitleMax    = 100
)

// YoutubePublisher uploads video_network posts as Shorts. The video is
// streamed from its stored URL straight into the upload.
type YoutubePublisher struct {
	secret   []byte
	sa       repository.SocialAccountRepository
	tokens   TokenSourceFunc
	download *http.Client
}

func NewYoutubePublisher(secretKey string, sa repository.SocialAccountRepository, tokens TokenSourceFunc) *YoutubePublisher {
	return &YoutubePublisher{
		secret:   []byte(secretKey),
		sa:       sa,
		tokens:   tokens,
		download: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (p *YoutubePublisher) Platform() models.Platform {
	return models.PlatformVideoNetwork
}

// shortsTitle is the first line of the content, cut to fit the title limit
// together with the #Shorts tag.
func shortsTitle(content string) string {
	const tag = " #Shorts"
	title := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
	runes := []rune(title)
	if limit := youtubeTitleMax - len(tag); len(runes) > limit {
		title = strings.TrimSpace(string(runes[:limit]))
	}
	return title + tag
}

func (p *YoutubePublisher) Publish(ctx context.Context, post *models.Post) (string, error) {
	if post.MediaKind != models.MediaKindVideo || post.MediaURL == "" {
		return "", errors.New("video_network posts need a video")
	}

	acc, err := p.sa.GetByPlatform(ctx, post.UserID, models.PlatformVideoNetwork)
	if err != nil {
		return "", fmt.Errorf("load account: %w", err)
	}
	if !acc.Connected(time.Now()) || acc.RefreshToken == "" {
		return "", ErrNotConnected
	}

	refreshToken, err := utils.Decrypt(acc.RefreshToken, p.secret)
	if err != nil {
		return "", err
	}

	client := oauth2.NewClient(ctx, p.tokens(ctx, refreshToken))
	yt, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("error creating YouTube service: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.MediaURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.download.Do(req)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download video: unexpected status %d", resp.StatusCode)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       shortsTitle(post.Content),
			Description: post.Content,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	uploaded, err := yt.Videos.Insert([]string{"snippet", "status"}, video).Media(resp.Body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	return uploaded.Id, nil
}
