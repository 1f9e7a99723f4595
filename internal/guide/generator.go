package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rightguard/internal/content"

	"google.golang.org/genai"
)

const defaultScript = "I am exercising my constitutional rights. I wish to remain silent and speak to an attorney."

const systemPrompt = "You are a legal expert specializing in constitutional rights and state-specific law enforcement " +
	"interaction guidelines. Provide accurate, practical information while emphasizing that this is general " +
	"information and not legal advice."

// GenAIGenerator writes guides with a Gemini model.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, state string, lang content.Language) (Draft, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(state, lang)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   2000,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return Draft{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Draft{}, errors.New("empty guide content")
	}
	return parseDraft(text, state), nil
}

func buildPrompt(state string, lang content.Language) string {
	return fmt.Sprintf(`Generate a comprehensive legal rights guide for %s in %s.

Include:
1. State-specific rights during police encounters
2. Key laws and statutes relevant to citizen interactions with law enforcement
3. "What to say" scripts for common scenarios (traffic stops, questioning, searches)
4. Important state-specific considerations and exceptions

Format as JSON with:
- title: Brief title for the guide
- content: Detailed legal information (markdown format)
- script: Key phrases and scripts for interactions

Keep it accurate, practical, and focused on citizen rights and safety.`, state, lang.Name())
}

// parseDraft accepts the model's JSON, optionally inside a code fence. Any
// other output becomes the content of a guide with a default title and script.
func parseDraft(text, state string) Draft {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var d Draft
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &d); err == nil && d.Content != "" {
		if d.Title == "" {
			d.Title = state + " Legal Rights Guide"
		}
		if d.Script == "" {
			d.Script = defaultScript
		}
		return d
	}

	return Draft{
		Title:   state + " Legal Rights Guide",
		Content: text,
		Script:  defaultScript,
	}
}

// FallbackGenerator assembles a guide from the built-in basic rights. It is
// used when no model is configured.
type FallbackGenerator struct{}

func (FallbackGenerator) Generate(_ context.Context, state string, lang content.Language) (Draft, error) {
	r := content.For(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", r.Title, state)
	for _, right := range r.Rights {
		fmt.Fprintf(&b, "- %s\n", right)
	}

	scripts := make([]string, 0, len(content.ScriptKeys))
	for _, k := range content.ScriptKeys {
		if s := r.Scripts[k]; s != "" {
			scripts = append(scripts, s)
		}
	}

	return Draft{
		Title:   state + ": " + r.Title,
		Content: b.String(),
		Script:  strings.Join(scripts, "\n"),
	}, nil
}
