package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Intent kinds the assistant may return.
const (
	KindOrder     = "order"
	KindMenu      = "menu"
	KindInventory = "inventory"
	KindReport    = "report"
	KindClarify   = "clarify"
)

// ErrInvalidIntent is returned when the model output does not describe a usable action.
var ErrInvalidIntent = errors.New("invalid intent")

// OrderIntent is the structured interpretation of a customer or barista request.
// Only the fields relevant to Kind are meaningful.
type OrderIntent struct {
	Kind       string  `json:"kind" jsonschema:"enum=order,enum=menu,enum=inventory,enum=report,enum=clarify"`
	CoffeeID   int     `json:"coffee_id" jsonschema:"description=Menu id of the coffee to order; 0 unless kind is order"`
	Quantity   int     `json:"quantity" jsonschema:"description=Number of cups; 0 unless kind is order"`
	Days       int     `json:"days" jsonschema:"description=Report window in days; 0 unless kind is report"`
	Message    string  `json:"message" jsonschema:"description=Clarifying question when kind is clarify; otherwise a short confirmation"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Normalize fills defaults the model commonly leaves out.
func (i *OrderIntent) Normalize() {
	i.Kind = strings.ToLower(strings.TrimSpace(i.Kind))
	i.Message = strings.TrimSpace(i.Message)
	if i.Kind == KindOrder && i.Quantity == 0 {
		i.Quantity = 1
	}
	if i.Kind == KindReport && i.Days == 0 {
		i.Days = 7
	}
}

// Validate checks that the intent can be acted upon.
func (i *OrderIntent) Validate() error {
	switch i.Kind {
	case KindOrder:
		if i.CoffeeID <= 0 {
			return fmt.Errorf("%w: order without a coffee id", ErrInvalidIntent)
		}
		if i.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidIntent, i.Quantity)
		}
	case KindReport:
		if i.Days < 0 {
			return fmt.Errorf("%w: negative report window %d", ErrInvalidIntent, i.Days)
		}
	case KindClarify:
		if i.Message == "" {
			return fmt.Errorf("%w: clarification without a question", ErrInvalidIntent)
		}
	case KindMenu, KindInventory:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, i.Kind)
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f out of range", ErrInvalidIntent, i.Confidence)
	}
	return nil
}

// ParseIntent decodes, normalizes and validates a model response body.
func ParseIntent(content string) (*OrderIntent, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty response content")
	}
	var intent OrderIntent
	if err := json.Unmarshal([]byte(content), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	intent.Normalize()
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	return &intent, nil
}

type AgentService interface {
	InterpretOrder(ctx context.Context, request string, menu string) (*OrderIntent, error)
}

type Agent struct {
	client *openai.Client
	model  string
}

// NewAgent builds an agent. An empty model selects gpt-4o.
func NewAgent(apiKey, model string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	return &Agent{client: &client, model: model}
}

func (a *Agent) InterpretOrder(ctx context.Context, request string, menu string) (*OrderIntent, error) {
	prompt := BuildPrompt(request, menu)

	schemaMap, err := intentSchema()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(a.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "coffee_order_intent",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("The action a coffee shop point-of-sale should take for a request"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}
	return ParseIntent(resp.OutputText())
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(request, menu string) string {
	return fmt.Sprintf(`You are the order assistant of a small coffee shop.
Interpret the request below and choose exactly one action.
Rules:
1. For an order, use ONLY a coffee id from the menu below and a positive quantity.
2. If the coffee is ambiguous or not on the menu, use kind "clarify" and ask a short question.
3. Use kind "menu", "inventory" or "report" when the request asks to see those.
4. Provide a confidence score (0.0-1.0) and explain your reasoning.

Menu:
%s

Request: %s`, menu, request)
}

func intentSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(&OrderIntent{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
