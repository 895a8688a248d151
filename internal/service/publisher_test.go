package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"golang.org/x/oauth2"
)

func activeAccount(platform models.Platform, accessToken string) *models.SocialAccount {
	return &models.SocialAccount{
		ID:             1,
		UserID:         7,
		Platform:       platform,
		AccountID:      "acct-1",
		AccessToken:    encrypted(accessToken),
		TokenExpiresAt: time.Now().Add(time.Hour),
		AccountStatus:  models.AccountStatusActive,
	}
}

func TestMicroblogPublish(t *testing.T) {
	t.Parallel()

	var gotText, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tweets" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body["text"]
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1789"}}`))
	}))
	defer srv.Close()

	accounts := &fakeAccounts{accounts: []*models.SocialAccount{activeAccount(models.PlatformMicroblog, "mb-token")}}
	pub := NewMicroblogPublisher(srv.URL, testSecret, accounts)

	id, err := pub.Publish(context.Background(), &models.Post{
		UserID:   7,
		Content:  "Open late today",
		MediaURL: "https://cdn.example.com/a.jpg",
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "1789" {
		t.Fatalf("expected id 1789, got %s", id)
	}
	if gotAuth != "Bearer mb-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotText != "Open late today\nhttps://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected text %q", gotText)
	}
}

func TestMicroblogRejectsLongText(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{accounts: []*models.SocialAccount{activeAccount(models.PlatformMicroblog, "mb-token")}}
	pub := NewMicroblogPublisher("http://unused.invalid", testSecret, accounts)

	_, err := pub.Publish(context.Background(), &models.Post{UserID: 7, Content: strings.Repeat("é", 281)})
	if err == nil || !strings.Contains(err.Error(), "limit is 280") {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestMicroblogNotConnected(t *testing.T) {
	t.Parallel()

	pub := NewMicroblogPublisher("http://unused.invalid", testSecret, &fakeAccounts{})
	if _, err := pub.Publish(context.Background(), &models.Post{UserID: 7, Content: "hi"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestInstagramPublishVideoWaitsForContainer(t *testing.T) {
	t.Parallel()

	polls := 0
	var container map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v21.0/acct-1/media":
			_ = json.NewDecoder(r.Body).Decode(&container)
			_, _ = w.Write([]byte(`{"id":"c-1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v21.0/c-1":
			polls++
			if polls < 2 {
				_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v21.0/acct-1/media_publish":
			_, _ = w.Write([]byte(`{"id":"m-9"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	accounts := &fakeAccounts{accounts: []*models.SocialAccount{activeAccount(models.PlatformPhotoNetwork, "ig-token")}}
	pub := NewInstagramPublisher(srv.URL, testSecret, accounts)
	pub.pollEvery = time.Millisecond

	id, err := pub.Publish(context.Background(), &models.Post{
		UserID:    7,
		Content:   "New arrivals",
		MediaURL:  "https://cdn.example.com/v.mp4",
		MediaKind: models.MediaKindVideo,
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "m-9" {
		t.Fatalf("expected m-9, got %s", id)
	}
	if container["media_type"] != "REELS" || container["video_url"] != "https://cdn.example.com/v.mp4" {
		t.Fatalf("unexpected container payload %v", container)
	}
	if polls != 2 {
		t.Fatalf("expected 2 status polls, got %d", polls)
	}
}

func TestInstagramRequiresMedia(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{accounts: []*models.SocialAccount{activeAccount(models.PlatformPhotoNetwork, "ig-token")}}
	pub := NewInstagramPublisher("http://unused.invalid", testSecret, accounts)

	if _, err := pub.Publish(context.Background(), &models.Post{UserID: 7, Content: "text only"}); err == nil {
		t.Fatalf("expected error for post without media")
	}
}

func TestInstagramRefreshToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh_access_token" || r.URL.Query().Get("access_token") != "old" {
			t.Errorf("unexpected refresh request %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"access_token":"new","expires_in":5184000}`))
	}))
	defer srv.Close()

	acc := activeAccount(models.PlatformPhotoNetwork, "old")
	accounts := &fakeAccounts{accounts: []*models.SocialAccount{acc}}
	pub := NewInstagramPublisher(srv.URL, testSecret, accounts)

	if err := pub.RefreshToken(context.Background(), acc); err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	stored, ok := accounts.tokens[acc.ID]
	if !ok || stored == "new" {
		t.Fatalf("expected an encrypted token to be stored, got %q", stored)
	}
}

func TestListingPublish(t *testing.T) {
	t.Parallel()

	var got localPost
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"name":"accounts/1/locations/store-1/localPosts/55"}`))
	}))
	defer srv.Close()

	users := fakeUsers{7: {ID: 7, ListingAccount: "accounts/1", ListingRefreshToken: encrypted("refresh")}}
	tokens := func(ctx context.Context, refreshToken string) oauth2.TokenSource {
		if refreshToken != "refresh" {
			t.Errorf("unexpected refresh token %q", refreshToken)
		}
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "listing-access"})
	}
	pub := NewListingPublisher(srv.URL, testSecret, users, tokens)

	name, err := pub.Publish(context.Background(), &models.Post{
		UserID:    7,
		StoreID:   "store-1",
		Content:   "Weekend sale",
		MediaURL:  "https://cdn.example.com/a.jpg",
		MediaKind: models.MediaKindPhoto,
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if name != "accounts/1/locations/store-1/localPosts/55" {
		t.Fatalf("unexpected name %s", name)
	}
	if gotPath != "/accounts/1/locations/store-1/localPosts" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer listing-access" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if got.Summary != "Weekend sale" || len(got.Media) != 1 || got.Media[0].MediaFormat != "PHOTO" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestListingNotConnected(t *testing.T) {
	t.Parallel()

	pub := NewListingPublisher("http://unused.invalid", testSecret, fakeUsers{7: {ID: 7}}, nil)
	if _, err := pub.Publish(context.Background(), &models.Post{UserID: 7, Content: "x"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestShortsTitle(t *testing.T) {
	t.Parallel()

	if got := shortsTitle("Fresh bagels\nAll day long"); got != "Fresh bagels #Shorts" {
		t.Fatalf("unexpected title %q", got)
	}
	long := shortsTitle(strings.Repeat("a", 150))
	if n := len([]rune(long)); n > youtubeTitleMax {
		t.Fatalf("title has %d runes", n)
	}
	if !strings.HasSuffix(long, " #Shorts") {
		t.Fatalf("title lost the tag: %q", long)
	}
}
