package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"carscout/config"
	"carscout/models"
	"carscout/utils"
)

// ChatCompleter is the slice of the OpenAI client the Rater needs.
// Tests inject canned completions through it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Rater scores listings against the operator's preferences through an
// OpenAI-compatible endpoint with forced tool calling.
type Rater struct {
	client ChatCompleter
	model  string
	logger *utils.Logger
}

// judgment is one parsed (rating, reasoning) pair from a tool call.
type judgment struct {
	rating    float64
	reasoning string
}

const systemPrompt = "You are an AI that rates car listings based on user preferences. " +
	"Each rating should provide a unique perspective, focusing on different aspects of the car."

var rateCarTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        "rate_car",
		Description: "Rates a car listing based on user preferences and provides reasoning",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"rating": {
					Type:        jsonschema.Number,
					Description: "Rating from 0 to 10, where 10 is a perfect match",
				},
				"reasoning": {
					Type: jsonschema.String,
					Description: "Detailed explanation of why the car was rated this way, " +
						"including its condition, features, and how it matches the requirements",
				},
			},
			Required: []string{"rating", "reasoning"},
		},
	},
}

var (
	ratingPattern    = regexp.MustCompile(`Rating:\s*(\d+(?:\.\d+)?)`)
	reasoningPattern = regexp.MustCompile(`Reasoning:\s*(.*)`)
)

// NewRater builds a Rater backed by the configured model endpoint.
func NewRater(cfg *config.Config, logger *utils.Logger) *Rater {
	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	clientCfg.BaseURL = cfg.LLMBaseURL

	return &Rater{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.LLMModel,
		logger: logger,
	}
}

// NewRaterWithClient builds a Rater around an existing completion client.
func NewRaterWithClient(client ChatCompleter, model string, logger *utils.Logger) *Rater {
	return &Rater{client: client, model: model, logger: logger}
}

// Rate asks the model for several independent judgments of one listing
// and aggregates them: the mean becomes the score, and the lowest and
// highest judgments' reasoning is reported verbatim. Every failure mode
// degrades to a zero score with an explanatory string — scoring never
// aborts the batch.
func (r *Rater) Rate(ctx context.Context, listing *models.Listing, detail models.ListingDetail, prefs models.Preferences) (float64, string, string) {
	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(listing, detail, prefs)},
		},
		Tools:       []openai.Tool{rateCarTool},
		ToolChoice:  "required",
		Temperature: 0.4,
		MaxTokens:   500,
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		r.logger.Error("[rater] Completion failed for %s: %v", listing.URL, err)
		msg := fmt.Sprintf("Error: %v", err)
		return 0, msg, msg
	}
	if len(resp.Choices) == 0 {
		return 0, "Error: model returned no choices", "Error: model returned no choices"
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		r.logger.Warn("[rater] No tool call returned for %s, falling back to text parsing", listing.URL)
		return parseTextFallback(msg.Content)
	}

	judgments := parseToolCalls(msg.ToolCalls, r.logger)
	if len(judgments) == 0 {
		return 0, "No valid ratings were provided", "No valid ratings were provided"
	}

	sort.Slice(judgments, func(i, j int) bool { return judgments[i].rating < judgments[j].rating })

	var sum float64
	for _, j := range judgments {
		sum += j.rating
	}
	score := math.Round(sum/float64(len(judgments))*100) / 100

	lowest := judgments[0]
	highest := judgments[len(judgments)-1]
	low := fmt.Sprintf("Rated: %v/10: %s", lowest.rating, lowest.reasoning)
	high := fmt.Sprintf("Rated: %v/10: %s", highest.rating, highest.reasoning)

	r.logger.Info("[rater] %d judgments for %s — average %.2f", len(judgments), listing.URL, score)
	return score, low, high
}

// parseToolCalls strictly decodes each rate_car invocation. Arguments
// that fail schema-shaped decoding are discarded, never interpreted any
// other way; one bad judgment does not invalidate the rest.
func parseToolCalls(calls []openai.ToolCall, logger *utils.Logger) []judgment {
	var out []judgment
	for _, call := range calls {
		if call.Function.Name != "rate_car" {
			continue
		}

		var args struct {
			Rating    *float64 `json:"rating"`
			Reasoning *string  `json:"reasoning"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			logger.Warn("[rater] Discarding malformed tool arguments: %v", err)
			continue
		}
		if args.Rating == nil || args.Reasoning == nil {
			logger.Warn("[rater] Discarding tool call with missing fields")
			continue
		}

		out = append(out, judgment{
			rating:    clamp(*args.Rating, 0, 10),
			reasoning: *args.Reasoning,
		})
	}
	return out
}

// parseTextFallback recovers a single judgment from a prose reply of the
// "Rating: <n> / Reasoning: <text>" shape.
func parseTextFallback(content string) (float64, string, string) {
	ratingMatch := ratingPattern.FindStringSubmatch(content)
	reasoningMatch := reasoningPattern.FindStringSubmatch(content)
	if ratingMatch == nil || reasoningMatch == nil {
		return 0, "Failed to parse AI response", "Failed to parse AI response"
	}

	rating, err := strconv.ParseFloat(ratingMatch[1], 64)
	if err != nil {
		return 0, "Failed to parse AI response", "Failed to parse AI response"
	}

	reasoning := strings.TrimSpace(reasoningMatch[1])
	return clamp(rating, 0, 10), reasoning, reasoning
}

// buildPrompt embeds the preferences, the listing facts, the flattened
// detail parameters and the free-text description into one request.
func buildPrompt(listing *models.Listing, detail models.ListingDetail, prefs models.Preferences) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rate this car from 0 to 10 based on these requirements:\n%s\n\n", prefs.Description)
	fmt.Fprintf(&b, "Car details:\nTitle: %s\nPrice: %.2f EUR\nLocation: %s\n", listing.Title, listing.Price, listing.Location)
	fmt.Fprintf(&b, "Age: %s years\nKilometers: %s km\n", intOrUnknown(listing.Age), intOrUnknown(listing.Kilometers))

	if params := flattenParameters(detail.Parameters); params != "" {
		b.WriteString("\nAdditional Parameters:\n")
		b.WriteString(params)
	}

	fmt.Fprintf(&b, "\nAdditional description:\n%s\n", detail.Description)
	b.WriteString("\nPlease provide unique perspectives in your reasoning, focusing on different aspects of the car.\n")

	return b.String()
}

// flattenParameters renders the parameter mapping as prompt bullets:
// booleans as a bare bullet, feature groups as nested comma lists.
// Keys are sorted so the prompt is deterministic.
func flattenParameters(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		switch v := params[key].(type) {
		case bool:
			fmt.Fprintf(&b, "- %s\n", key)
		case string:
			fmt.Fprintf(&b, "- %s: %s\n", key, v)
		case map[string][]string:
			fmt.Fprintf(&b, "- %s:\n", key)
			sections := make([]string, 0, len(v))
			for s := range v {
				sections = append(sections, s)
			}
			sort.Strings(sections)
			for _, s := range sections {
				fmt.Fprintf(&b, "  - %s: %s\n", s, strings.Join(v[s], ", "))
			}
		default:
			fmt.Fprintf(&b, "- %s: %v\n", key, v)
		}
	}
	return b.String()
}

func intOrUnknown(v *int) string {
	if v == nil {
		return "Unknown"
	}
	return strconv.Itoa(*v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
