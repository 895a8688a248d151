package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	ListingScope      = "https://www.googleapis.com/auth/business.manage"
	listingSummaryMax = 1500
)

type localPostMedia struct {
	MediaFormat string `json:"mediaFormat"`
	SourceURL   string `json:"sourceUrl"`
}

type localPost struct {
	LanguageCode string           `json:"languageCode"`
	Summary      string           `json:"summary"`
	TopicType    string           `json:"topicType"`
	Media        []localPostMedia `json:"media,omitempty"`
}

// ListingPublisher posts updates to the store's business listing. The store
// id is the listing location under the account linked on the user profile.
type ListingPublisher struct {
	baseURL string
	secret  []byte
	ur      repository.UserRepository
	tokens  TokenSourceFunc
}

func NewListingPublisher(baseURL, secretKey string, ur repository.UserRepository, tokens TokenSourceFunc) *ListingPublisher {
	return &ListingPublisher{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secretKey),
		ur:      ur,
		tokens:  tokens,
	}
}

func (p *ListingPublisher) Platform() models.Platform {
	return models.PlatformPrimaryListing
}

func (p *ListingPublisher) Publish(ctx context.Context, post *models.Post) (string, error) {
	user, _, err := p.ur.GetByID(ctx, post.UserID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if !user.ListingConnected() {
		return "", ErrNotConnected
	}
	if utf8.RuneCountInString(post.Content) > listingSummaryMax {
		return "", fmt.Errorf("listing posts are limited to %d characters", listingSummaryMax)
	}

	refreshToken, err := utils.Decrypt(user.ListingRefreshToken, p.secret)
	if err != nil {
		return "", err
	}
	client := oauth2.NewClient(ctx, p.tokens(ctx, refreshToken))

	body := localPost{
		LanguageCode: "en-US",
		Summary:      post.Content,
		TopicType:    "STANDARD",
	}
	if post.MediaURL != "" {
		body.Media = []localPostMedia{{MediaFormat: string(post.MediaKind), SourceURL: post.MediaURL}}
	}

	url := fmt.Sprintf("%s/%s/locations/%s/localPosts", p.baseURL, user.ListingAccount, post.StoreID)
	var result struct {
		Name string `json:"name"`
	}
	if err := doJSON(ctx, client, http.MethodPost, url, "", body, &result); err != nil {
		return "", fmt.Errorf("create local post: %w", err)
	}
	return result.Name, nil
}
