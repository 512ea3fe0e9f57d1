package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
)

// Client talks to the Gemini generateContent endpoint. A genai client is
// built per call because the credential changes from call to call.
type Client struct {
	Model       string
	BaseURL     string // empty means the SDK default
	Temperature float32
	HTTPClient  *http.Client
}

func NewClient(model, baseURL string, temperature float32, timeout time.Duration) *Client {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		Model:       model,
		BaseURL:     baseURL,
		Temperature: temperature,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Generate(ctx context.Context, cred domain.Credential, in domain.Instruction) (string, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      string(cred),
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.BaseURL},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create genai client: %v", domain.ErrNetworkFailure, err)
	}

	parts := []*genai.Part{genai.NewPartFromText(in.User)}
	if len(in.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(in.Image, in.ImageMIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(in.System)}},
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(c.Temperature),
	}

	resp, err := cli.Models.GenerateContent(ctx, c.Model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	return text(resp)
}

// classify maps SDK errors onto the domain taxonomy.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrNetworkFailure, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
}

// text pulls the first candidate's text out of the envelope, skipping thought parts.
func text(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", domain.ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return "", domain.ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", domain.ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", domain.ErrEmptyResponse
	}
	return out, nil
}
