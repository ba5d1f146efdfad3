package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

const extractorSystemPrompt = `You extract equipment line items from the text of a datacenter delivery note.
For every physical hardware unit listed, emit one entry per unit (expand quantities: a line with quantity 3 becomes 3 entries).
Respond with a JSON array only, no prose:
[{"name": "...", "serialNumber": "...", "partNumber": "...", "type": "...", "model": "..."}]
Leave fields you cannot determine as empty strings.`

// ExtractedEquipment is one hardware unit pulled out of a delivery note document
type ExtractedEquipment struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	PartNumber   string `json:"partNumber"`
	Type         string `json:"type"`
	Model        string `json:"model"`
}

// ExtractEquipment parses the text of a delivery note document into
// individual equipment entries, one per physical unit.
func (m *Matcher) ExtractEquipment(ctx context.Context, documentText string) ([]ExtractedEquipment, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractorSystemPrompt),
			openai.UserMessage(documentText),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("extractor response contains no JSON array")
	}

	var items []ExtractedEquipment
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to parse extractor response: %w", err)
	}

	m.log.Info("Extracted equipment from delivery note document", zap.Int("items", len(items)))
	return items, nil
}
