package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/maheshrc27/storepost/internal/composer"
	"golang.org/x/time/rate"

	config "github.com/maheshrc27/storepost/configs"
)

// GenerationService writes post copy through an OpenAI-compatible chat
// completion endpoint. Calls share one token bucket for the whole process.
type GenerationService struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	limiter      *rate.Limiter
	httpClient   *http.Client
}

var _ composer.Generator = (*GenerationService)(nil)

func NewGenerationService(cfg config.Generation) *GenerationService {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	return &GenerationService{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *GenerationService) Generate(ctx context.Context, req composer.GenerateRequest) (string, error) {
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return "", fmt.Errorf("generation client misconfigured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation throttled: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model": s.model,
		"messages": []chatMessage{
			{Role: "system", Content: safePrompt(s.systemPrompt)},
			{Role: "user", Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generation error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// buildPrompt renders the request as plain instructions. Parameters are
// listed in name order so identical requests produce identical prompts.
func buildPrompt(req composer.GenerateRequest) string {
	var b strings.Builder
	switch req.Kind {
	case composer.GenerateHashtags:
		b.WriteString("Suggest up to 8 hashtags for the following local business post. ")
		b.WriteString("Reply with the hashtags only, separated by spaces.\n")
	default:
		b.WriteString("Write a social media post for a local business. Reply with the post text only.\n")
	}

	if req.StoreID != "" {
		fmt.Fprintf(&b, "Store: %s\n", req.StoreID)
	}

	names := make([]string, 0, len(req.Parameters))
	for name, value := range req.Parameters {
		if strings.TrimSpace(value) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", strings.ReplaceAll(name, "_", " "), strings.TrimSpace(req.Parameters[name]))
	}

	if content := strings.TrimSpace(req.Content); content != "" {
		fmt.Fprintf(&b, "Current draft:\n%s\n", content)
	}
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a copywriter for small local businesses. Keep posts short, friendly and concrete."
	}
	return prompt
}
