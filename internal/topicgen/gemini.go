// Package topicgen generates topic cards from a seed phrase with Gemini.
package topicgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"chameleon/internal/domain"
)

// DefaultModel is the Gemini model asked for topic cards
const DefaultModel = "gemini-2.5-flash"

// fallbackSeed is used when the host leaves the seed blank
const fallbackSeed = "Random interesting topic"

const systemInstruction = `You are a game content generator for "The Chameleon".
Generate a topic card with a category and exactly 16 distinct words related to that category.
The words should be simple nouns or concepts.
The output must be strictly JSON.`

var errEmptyResponse = errors.New("empty response from model")

var topicSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category": {Type: genai.TypeString},
		"words": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"category", "words"},
}

// contentGenerator is the part of the genai client the generator uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates topic cards through the Gemini API
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a generator using apiKey. An empty model uses DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models contentGenerator, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{models: models, model: model}
}

// Generate asks the model for a card about seed and normalizes it to a full grid
func (g *Gemini) Generate(ctx context.Context, seed string) (domain.TopicCard, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		seed = fallbackSeed
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf("Generate a grid for the category: %q.", seed)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    topicSchema,
		})
	if err != nil {
		return domain.TopicCard{}, fmt.Errorf("generate topic: %w", err)
	}
	return parseCard(resp.Text(), seed)
}

// parseCard decodes the model's JSON answer. Blank words are dropped before
// the card is padded or cut to the grid size.
func parseCard(text, seed string) (domain.TopicCard, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TopicCard{}, errEmptyResponse
	}

	var raw domain.TopicCard
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.TopicCard{}, fmt.Errorf("decode topic: %w", err)
	}

	words := make([]string, 0, len(raw.Words))
	for _, w := range raw.Words {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	category := raw.Category
	if strings.TrimSpace(category) == "" {
		category = seed
	}

	card := domain.TopicCard{Category: category, Words: words}.Normalize()
	if err := card.Validate(); err != nil {
		return domain.TopicCard{}, err
	}
	return card, nil
}
