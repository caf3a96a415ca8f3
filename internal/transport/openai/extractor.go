package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/metrics"
	"github.com/Dev7-web/tendorlelo/internal/retry"
)

// maxExtractionInput is the number of runes of document text sent to the model.
const maxExtractionInput = 12000

const tenderPrompt = `You are extracting structured metadata from a government tender document.
Return ONLY valid JSON with the following keys:
- title
- department
- sector
- domains (array of strings)
- required_certifications (array of strings)
- required_technologies (array of strings)
- required_experience_years (number or null)
- estimated_value (string or null)
- location
- delivery_period
- emd_amount
- summary`

const companyPrompt = `You are extracting structured metadata from a company profile document.
Return ONLY valid JSON with the following keys:
- company_name
- industries (array of strings)
- capabilities (array of strings)
- certifications (array of strings)
- technologies (array of strings)
- domains (array of strings)
- past_clients (array of strings)
- government_experience (boolean or null)
- years_in_business (number or null)
- employee_count (string or null)
- annual_turnover (string or null)
- locations (array of strings)
- registrations (array of strings)
- summary`

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

var errMalformedResponse = errors.New("malformed extraction response")

// ExtractorConfig holds the chat model settings for metadata extraction.
type ExtractorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   retry.Policy
	Logger  *zap.Logger
}

// Extractor implements domain.MetadataExtractor over chat completions in
// JSON mode.
type Extractor struct {
	client *openai.Client
	model  string
	retry  retry.Policy
	logger *zap.Logger
}

// NewExtractor creates an OpenAI-compatible metadata extractor.
func NewExtractor(cfg *ExtractorConfig) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.Retry
	if policy.MaxAttempts <= 0 {
		policy = retry.DefaultPolicy()
	}
	return &Extractor{
		client: newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
		retry:  policy,
		logger: logger,
	}
}

// ExtractTender extracts tender metadata from raw document text.
func (e *Extractor) ExtractTender(ctx context.Context, text string) (metadata.Record, error) {
	return e.extract(ctx, tenderPrompt, text)
}

// ExtractCompany extracts company-profile metadata from raw document text.
func (e *Extractor) ExtractCompany(ctx context.Context, text string) (metadata.Record, error) {
	return e.extract(ctx, companyPrompt, text)
}

func (e *Extractor) extract(ctx context.Context, prompt, text string) (metadata.Record, error) {
	text = truncateRunes(strings.TrimSpace(text), maxExtractionInput)
	if text == "" {
		return metadata.Record{}, domain.InvalidInputf("document text is empty")
	}

	var raw map[string]any
	err := e.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		out, err := e.complete(ctx, prompt, text)
		if err != nil {
			e.logger.Warn("Extraction attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "error").Inc()
		if errors.Is(err, errMalformedResponse) {
			return metadata.Record{}, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
		}
		return metadata.Record{}, parseAPIError("extraction", err, domain.ErrExtractionFailed)
	}

	rec, fieldErrs := metadata.FromMap(raw)
	for _, fe := range fieldErrs {
		metrics.ExtractionFieldErrorsTotal.Inc()
		e.logger.Warn("Dropped malformed metadata field", zap.String("field", fe.Field), zap.Error(fe.Err))
	}
	metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "success").Inc()
	return rec, nil
}

func (e *Extractor) complete(ctx context.Context, prompt, text string) (map[string]any, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		if code := statusCode(err); code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", errMalformedResponse)
	}
	return parseJSONObject(resp.Choices[0].Message.Content)
}

// parseJSONObject decodes the model output, tolerating code fences and prose
// around the object.
func parseJSONObject(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err == nil && out != nil {
		return out, nil
	}
	if m := jsonObject.FindString(s); m != "" {
		if err := json.Unmarshal([]byte(m), &out); err == nil && out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", errMalformedResponse, truncateRunes(s, 300))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
