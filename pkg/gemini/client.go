package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Client struct {
	model *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel("gemini-2.0-flash-001")
	return &Client{model: model}, nil
}

// AnswerItemQuestion answers a buyer's question about a listing, using
// only the listing fields as context. The model is told to decline when
// the listing does not contain the answer.
func (c *Client) AnswerItemQuestion(ctx context.Context, title, description, condition string, price int, question string) (string, error) {
	promptText := fmt.Sprintf(`You are a helpful assistant on a second-hand marketplace.
Answer the buyer's question about the listing below.
Use only the information in the listing. If the listing does not contain
the answer, say so and suggest asking the seller directly.
Keep the answer short and polite.

Listing:
- Title: %s
- Description: %s
- Condition: %s
- Price: %d yen

Question: %s`, title, description, condition, price, question)

	resp, err := c.model.GenerateContent(ctx, genai.Text(promptText))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	answer := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer += string(text)
		}
	}
	if answer == "" {
		return "", fmt.Errorf("no text in model response")
	}
	return answer, nil
}
