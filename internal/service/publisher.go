package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maheshrc27/storepost/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNotConnected marks a target whose account is missing or unusable.
var ErrNotConnected = errors.New("not connected")

// PlatformPublisher delivers one post to one platform and returns the
// platform's identifier for it.
type PlatformPublisher interface {
	Platform() models.Platform
	Publish(ctx context.Context, post *models.Post) (string, error)
}

// TokenSourceFunc builds an access token source from a stored refresh token.
type TokenSourceFunc func(ctx context.Context, refreshToken string) oauth2.TokenSource

func GoogleTokenSource(clientID, clientSecret string, scopes ...string) TokenSourceFunc {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
	return func(ctx context.Context, refreshToken string) oauth2.TokenSource {
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	}
}

// doJSON sends payload as JSON (or no body when nil) and decodes a 2xx
// response into out.
func doJSON(ctx context.Context, client *http.Client, method, url, bearer string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
