package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"google.golang.org/genai"
)

// MaxPromptDescriptionLength caps how much of a description reaches the prompt.
const MaxPromptDescriptionLength = 200

const suggestTimeout = 10 * time.Second

// CategorySuggestion is the model's pick for a description.
type CategorySuggestion struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// SuggestCategory asks Gemini which category fits description best. The
// answer is constrained to the category enum and validated again here.
func (c *Client) SuggestCategory(ctx context.Context, description string) (*CategorySuggestion, error) {
	log := logger.FromContext(ctx)
	descHash := hashDescription(description)

	if c.generator == nil {
		log.Error().Msg("SuggestCategory: gemini client not initialized")
		return nil, ErrNotConfigured
	}

	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is required")
	}

	categories := models.CategoryNames()
	prompt := buildCategorySuggestionPrompt(sanitizeDescription(description), categories)

	timeoutCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(500),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Enum:        categories,
					Description: "The most appropriate category from the provided list",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Brief explanation for the categorization",
				},
			},
			Required: []string{"category", "confidence", "reasoning"},
		},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		log.Error().Err(err).Str("description_hash", descHash).Msg("SuggestCategory: Gemini API call failed")
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	fullText := resp.Text()
	if fullText == "" {
		log.Warn().Str("description_hash", descHash).Msg("SuggestCategory: no text content in Gemini response")
		return nil, fmt.Errorf("no text content in response")
	}

	// Gemini sometimes wraps the object in prose even in JSON mode.
	jsonText := extractJSON(fullText)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		log.Error().Err(err).Str("description_hash", descHash).Msg("SuggestCategory: failed to parse JSON response")
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	category, ok := models.ParseCategory(raw.Category)
	if !ok {
		log.Warn().
			Str("description_hash", descHash).
			Str("suggested_category", raw.Category).
			Msg("SuggestCategory: suggested category not in available list")
		return nil, fmt.Errorf("suggested category '%s' not in available categories", raw.Category)
	}

	if raw.Confidence < 0.0 || raw.Confidence > 1.0 {
		return nil, fmt.Errorf("confidence out of range: %f", raw.Confidence)
	}

	log.Debug().
		Str("description_hash", descHash).
		Str("category", string(category)).
		Float64("confidence", raw.Confidence).
		Msg("SuggestCategory: matched category")

	return &CategorySuggestion{
		Category:   category,
		Confidence: raw.Confidence,
		Reasoning:  sanitizeReasoning(raw.Reasoning),
	}, nil
}

func buildCategorySuggestionPrompt(description string, categories []string) string {
	categoriesList := strings.Join(categories, "\n- ")

	return fmt.Sprintf(`Categorize this shared expense: "%s"

Available categories:
- %s

Rules:
- Choose the MOST appropriate category from the list
- "food" covers restaurants, takeout and groceries
- "transportation" for taxi, ride hailing, fuel, bus, train and flights
- "housing" for rent and maintenance, "utilities" for power, water, internet and phone bills
- Higher confidence (0.8-1.0) for obvious categories, lower (0.5-0.7) for ambiguous ones

Return JSON only:
{"category": "exact category name", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`, description, categoriesList)
}

// extractJSON returns the span from the first { to the last }, or "".
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// SanitizeForPrompt sanitizes user input to prevent prompt injection attacks.
// It removes or escapes characters that could break prompt structure,
// and truncates to the given maxLength.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Collapses newlines, tabs and runs of spaces.
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}

	return input
}

func sanitizeDescription(description string) string {
	return SanitizeForPrompt(description, MaxPromptDescriptionLength)
}

// sanitizeReasoning normalizes model output before it is returned to callers.
func sanitizeReasoning(reasoning string) string {
	reasoning = strings.Join(strings.Fields(reasoning), " ")

	const maxReasoningLength = 500
	if len(reasoning) > maxReasoningLength {
		reasoning = strings.TrimSpace(reasoning[:maxReasoningLength])
	}

	return reasoning
}

// hashDescription creates a SHA256 hash of the description for secure logging.
func hashDescription(description string) string {
	hash := sha256.Sum256([]byte(description))
	return hex.EncodeToString(hash[:8])
}
