// Package gemini implements the estimation service ports against the
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"bilancio/internal/llm"
	"bilancio/internal/log"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

var (
	errEmptyAPIKey   = errors.New("gemini: API key is required")
	errEmptyResponse = errors.New("gemini: response contained no text")
)

// Client talks to a single configured Gemini model. Both operations are
// independent network round trips; the client keeps no local state between
// calls and never retries.
type Client struct {
	client *genai.Client
	model  string
	logger *log.Logger
}

// New creates a client authenticated with the given API key. An empty key is
// a configuration error; callers treat it as fatal at startup.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errEmptyAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentLLM)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// taxResponseSchema constrains the structured estimation response to exactly
// the three fields parseTaxEstimate requires.
func taxResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"estimatedNetIncome": {Type: genai.TypeNumber},
			"estimatedTotalTax":  {Type: genai.TypeNumber},
			"disclaimer":         {Type: genai.TypeString},
		},
		Required: []string{"estimatedNetIncome", "estimatedTotalTax", "disclaimer"},
	}
}

// EstimateNetIncome implements llm.TaxEstimator. The response is constrained
// to a three-field JSON object by schema; the decoded payload is still
// checked field by field so a schema violation surfaces as an
// EstimationError instead of a raw parse fault.
func (c *Client) EstimateNetIncome(ctx context.Context, req llm.EstimationRequest) (llm.TaxEstimate, error) {
	model := c.client.GenerativeModel(c.model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   taxResponseSchema(),
	}

	text, err := generate(ctx, model, llm.TaxPrompt(req))
	if err != nil {
		return llm.TaxEstimate{}, llm.NewEstimationError(llm.StageTax, err)
	}

	estimate, err := parseTaxEstimate([]byte(text))
	if err != nil {
		c.logger.WarnContext(ctx, "Tax estimate response failed validation",
			log.FieldModel, c.model,
			log.FieldError, err.Error())
		return llm.TaxEstimate{}, llm.NewEstimationError(llm.StageTax, err)
	}

	return estimate, nil
}

// AnalyzeBudget implements llm.BudgetAnalyst. The narrative call has no
// schema to violate beyond "non-empty text".
func (c *Client) AnalyzeBudget(ctx context.Context, req llm.AnalysisRequest) (string, error) {
	model := c.client.GenerativeModel(c.model)

	text, err := generate(ctx, model, llm.AnalysisPrompt(req))
	if err != nil {
		return "", llm.NewEstimationError(llm.StageAnalysis, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.NewEstimationError(llm.StageAnalysis, errEmptyResponse)
	}

	return strings.TrimSpace(text), nil
}

// generate performs a single GenerateContent round trip and joins the text
// parts of the first candidate.
func generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errEmptyResponse
	}

	return b.String(), nil
}

// taxEstimatePayload mirrors the declared response schema. Pointer fields
// make a missing key distinguishable from a zero value.
type taxEstimatePayload struct {
	EstimatedNetIncome *float64 `json:"estimatedNetIncome"`
	EstimatedTotalTax  *float64 `json:"estimatedTotalTax"`
	Disclaimer         *string  `json:"disclaimer"`
}

// parseTaxEstimate decodes the structured response and verifies all three
// required fields are present.
func parseTaxEstimate(data []byte) (llm.TaxEstimate, error) {
	var payload taxEstimatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return llm.TaxEstimate{}, fmt.Errorf("decode tax estimate: %w", err)
	}

	var missing []string
	if payload.EstimatedNetIncome == nil {
		missing = append(missing, "estimatedNetIncome")
	}
	if payload.EstimatedTotalTax == nil {
		missing = append(missing, "estimatedTotalTax")
	}
	if payload.Disclaimer == nil {
		missing = append(missing, "disclaimer")
	}
	if len(missing) > 0 {
		return llm.TaxEstimate{}, fmt.Errorf("tax estimate missing required fields: %s", strings.Join(missing, ", "))
	}

	return llm.TaxEstimate{
		NetIncome:  *payload.EstimatedNetIncome,
		TotalTax:   *payload.EstimatedTotalTax,
		Disclaimer: *payload.Disclaimer,
	}, nil
}
