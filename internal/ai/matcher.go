// Package ai holds the OpenAI-backed helpers: the semantic equipment
// matcher and the delivery note document extractor. Both are optional;
// when no API key is configured the service falls back to manual flows.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/rackwise/receiving-api/internal/config"
	"github.com/rackwise/receiving-api/internal/matching"
)

const matcherSystemPrompt = `You are an assistant that pairs physically received datacenter equipment with the expected equipment slots of a project.
You receive two JSON lists: "equipment" (unmatched received units) and "slots" (expected type/model entries with remaining capacity).
Pair each equipment unit with the slot it most plausibly fills, using type, model, part number and name similarity.
Never pair more units to a slot than its remaining capacity. Leave units unpaired when no slot fits.
Respond with a JSON array only, no prose: [{"equipmentId": "<uuid>", "slotId": "<uuid>"}]`

// Matcher proposes equipment-to-slot pairings via a chat completion.
type Matcher struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

// NewMatcher creates a Matcher from the OpenAI configuration section
func NewMatcher(cfg config.OpenAIConfig, log *zap.Logger) *Matcher {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Matcher{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		log:    log,
	}
}

type proposedPairing struct {
	EquipmentID string `json:"equipmentId"`
	SlotID      string `json:"slotId"`
}

// MatchEquipment implements matching.Matcher. The prompt argument carries
// optional operator guidance ("ignore cables", "prefer serial prefixes").
func (m *Matcher) MatchEquipment(ctx context.Context, equipment []matching.EquipmentSummary, slots []matching.SlotSummary, prompt string) (map[uuid.UUID]uuid.UUID, error) {
	if len(equipment) == 0 || len(slots) == 0 {
		return map[uuid.UUID]uuid.UUID{}, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"equipment": equipment,
		"slots":     slots,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode matcher input: %w", err)
	}

	user := string(payload)
	if prompt != "" {
		user = "Operator guidance: " + prompt + "\n\n" + user
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(matcherSystemPrompt),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	proposals, err := parsePairings(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]uuid.UUID, len(proposals))
	for _, p := range proposals {
		eqID, err := uuid.Parse(p.EquipmentID)
		if err != nil {
			m.log.Warn("Matcher proposed invalid equipment id", zap.String("value", p.EquipmentID))
			continue
		}
		slotID, err := uuid.Parse(p.SlotID)
		if err != nil {
			m.log.Warn("Matcher proposed invalid slot id", zap.String("value", p.SlotID))
			continue
		}
		result[eqID] = slotID
	}

	m.log.Info("Semantic matcher proposed pairings",
		zap.Int("equipment", len(equipment)),
		zap.Int("slots", len(slots)),
		zap.Int("pairings", len(result)))

	return result, nil
}

// parsePairings extracts the JSON array from a model response that may be
// wrapped in markdown fences or surrounding prose
func parsePairings(content string) ([]proposedPairing, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("matcher response contains no JSON array")
	}

	var proposals []proposedPairing
	if err := json.Unmarshal([]byte(content[start:end+1]), &proposals); err != nil {
		return nil, fmt.Errorf("failed to parse matcher response: %w", err)
	}
	return proposals, nil
}
