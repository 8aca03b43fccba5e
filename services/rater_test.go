package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"carscout/models"
	"carscout/utils"
)

type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return f.resp, f.err
}

func rateCarCall(args string) openai.ToolCall {
	return openai.ToolCall{
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: "rate_car", Arguments: args},
	}
}

func responseWith(toolCalls []openai.ToolCall, content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content, ToolCalls: toolCalls}},
		},
	}
}

func testRater(resp openai.ChatCompletionResponse, err error) *Rater {
	return NewRaterWithClient(&fakeCompleter{resp: resp, err: err}, "test-model", utils.NewLogger())
}

func sampleListing() *models.Listing {
	return &models.Listing{Title: "Dacia Logan", URL: "https://www.olx.ro/d/oferta/x.html", Price: 5000}
}

func TestRateAveragesJudgments(t *testing.T) {
	r := testRater(responseWith([]openai.ToolCall{
		rateCarCall(`{"rating": 9, "reasoning": "great engine"}`),
		rateCarCall(`{"rating": 7, "reasoning": "decent mileage"}`),
		rateCarCall(`{"rating": 3, "reasoning": "rusty body"}`),
	}, ""), nil)

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 6.33, score)
	assert.Contains(t, low, "3/10")
	assert.Contains(t, low, "rusty body")
	assert.Contains(t, high, "9/10")
	assert.Contains(t, high, "great engine")
}

func TestRateDiscardsMalformedJudgments(t *testing.T) {
	r := testRater(responseWith([]openai.ToolCall{
		rateCarCall(`not json at all`),
		rateCarCall(`{"rating": 8}`),
		rateCarCall(`{"rating": 8, "reasoning": "the only valid one"}`),
	}, ""), nil)

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 8.0, score)
	assert.Contains(t, low, "the only valid one")
	assert.Contains(t, high, "the only valid one")
}

func TestRateClampsOutOfRangeRatings(t *testing.T) {
	r := testRater(responseWith([]openai.ToolCall{
		rateCarCall(`{"rating": 15, "reasoning": "overenthusiastic"}`),
		rateCarCall(`{"rating": -2, "reasoning": "overly harsh"}`),
	}, ""), nil)

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 5.0, score)
	assert.Contains(t, low, "0/10")
	assert.Contains(t, high, "10/10")
}

func TestRateNoValidJudgments(t *testing.T) {
	r := testRater(responseWith([]openai.ToolCall{
		rateCarCall(`broken`),
	}, ""), nil)

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 0.0, score)
	assert.Equal(t, "No valid ratings were provided", low)
	assert.Equal(t, low, high)
}

func TestRateTextFallback(t *testing.T) {
	r := testRater(responseWith(nil, "Rating: 7.5\nReasoning: solid car for the money"), nil)

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 7.5, score)
	assert.Equal(t, "solid car for the money", low)
	assert.Equal(t, low, high)
}

func TestRateTextFallbackUnparseable(t *testing.T) {
	r := testRater(responseWith(nil, "I cannot rate this listing."), nil)

	score, low, _ := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 0.0, score)
	assert.Equal(t, "Failed to parse AI response", low)
}

func TestRateTransportError(t *testing.T) {
	r := testRater(openai.ChatCompletionResponse{}, errors.New("connection refused"))

	score, low, high := r.Rate(context.Background(), sampleListing(), models.EmptyDetail(), models.Preferences{})

	assert.Equal(t, 0.0, score)
	assert.Contains(t, low, "Error:")
	assert.Contains(t, low, "connection refused")
	assert.Equal(t, low, high)
}

func TestBuildPromptFlattensParameters(t *testing.T) {
	age := 2019
	km := 120000
	listing := &models.Listing{Title: "BMW 320d", Price: 8000, Location: "Cluj", Age: &age, Kilometers: &km}
	detail := models.ListingDetail{
		Description: "Vand BMW, stare buna.",
		Parameters: map[string]any{
			"Combustibil":     "Diesel",
			"Persoana fizica": true,
			"Dotari": map[string][]string{
				"Confort": {"Aer conditionat", "Scaune incalzite"},
			},
		},
	}

	prompt := buildPrompt(listing, detail, models.Preferences{Description: "cheap diesel"})

	assert.Contains(t, prompt, "cheap diesel")
	assert.Contains(t, prompt, "Title: BMW 320d")
	assert.Contains(t, prompt, "Age: 2019 years")
	assert.Contains(t, prompt, "Kilometers: 120000 km")
	assert.Contains(t, prompt, "- Combustibil: Diesel")
	assert.Contains(t, prompt, "- Persoana fizica\n")
	assert.Contains(t, prompt, "  - Confort: Aer conditionat, Scaune incalzite")
	assert.Contains(t, prompt, "Vand BMW, stare buna.")
	// Bare flags render without a colon
	assert.False(t, strings.Contains(prompt, "Persoana fizica:"))
}

func TestBuildPromptUnknownAge(t *testing.T) {
	prompt := buildPrompt(sampleListing(), models.EmptyDetail(), models.Preferences{})
	assert.Contains(t, prompt, "Age: Unknown years")
}
