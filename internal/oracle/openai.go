package oracle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
)

// Config holds the OpenAI-compatible endpoint settings
type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	ModerationModel string
	Temperature     float64
	MaxRetries      int
}

// OpenAIClient implements Classifier, Extractor and Moderator over the OpenAI API
type OpenAIClient struct {
	client          openai.Client
	chatModel       string
	moderationModel string
	temperature     float64
	logger          *zap.Logger
}

// NewOpenAIClient creates the oracle client
func NewOpenAIClient(cfg Config, logger *zap.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client:          openai.NewClient(opts...),
		chatModel:       cfg.ChatModel,
		moderationModel: cfg.ModerationModel,
		temperature:     cfg.Temperature,
		logger:          logger.Named("oracle"),
	}
}

// Classify asks the model for exactly one document type tag
func (c *OpenAIClient) Classify(ctx context.Context, text string) (Result[domain.DocumentType], error) {
	raw, err := c.complete(ctx, classifyPrompt(), text, false)
	if err != nil {
		return Result[domain.DocumentType]{}, err
	}
	if t, ok := domain.ParseDocumentType(raw); ok {
		return Ok(t, raw), nil
	}
	c.logger.Debug("classification output not a known tag", zap.String("raw", raw))
	return Malformed[domain.DocumentType](raw), nil
}

// Extract asks the model for a JSON object with the requested fields
func (c *OpenAIClient) Extract(ctx context.Context, text string, fields []FieldSpec, simplified bool) (Result[domain.Record], error) {
	system := extractPrompt(fields)
	if simplified {
		system = simplifiedExtractPrompt(fields)
	}
	raw, err := c.complete(ctx, system, text, true)
	if err != nil {
		return Result[domain.Record]{}, err
	}
	rec, ok := ParseRecord(raw)
	if !ok {
		c.logger.Debug("extraction output is not a JSON object", zap.Int("length", len(raw)), zap.Bool("simplified", simplified))
		return Malformed[domain.Record](raw), nil
	}
	return Ok(rec, raw), nil
}

// Moderate runs the moderation endpoint and lists the flagged categories
func (c *OpenAIClient) Moderate(ctx context.Context, text string) (Verdict, error) {
	resp, err := c.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModel(c.moderationModel),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: moderation: %v", domain.ErrOracleUnavailable, err)
	}
	if len(resp.Results) == 0 {
		return Verdict{}, fmt.Errorf("%w: moderation returned no results", domain.ErrOracleUnavailable)
	}

	result := resp.Results[0]
	verdict := Verdict{Flagged: result.Flagged}
	if verdict.Flagged {
		gjson.Parse(result.Categories.RawJSON()).ForEach(func(key, value gjson.Result) bool {
			if value.Bool() {
				verdict.Categories = append(verdict.Categories, key.String())
			}
			return true
		})
		sort.Strings(verdict.Categories)
	}
	return verdict, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	c.logger.Debug("sending chat completion", zap.String("model", c.chatModel), zap.Bool("json", jsonMode))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrOracleUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classifyPrompt() string {
	var b strings.Builder
	b.WriteString("You work for an events studio that produces photorealistic 3D renders for weddings, quinceañeras and corporate events.\n")
	b.WriteString("Read the client's message and decide which document they need.\n\n")
	b.WriteString("base_contract: initial contract for a new event (client, event, date, venue, quote).\n")
	b.WriteString("setup_spec: technical setup and decoration (hall measurements, tables, chairs, centerpieces).\n")
	b.WriteString("render_themes: render themes and visual styles to confirm.\n")
	b.WriteString("change_control: changes and corrections to existing renders, revision rounds.\n")
	b.WriteString("final_delivery: final delivery of renders and payment authorization.\n\n")
	b.WriteString("Answer ONLY with one of: ")
	for i, t := range domain.DocumentTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(t))
	}
	b.WriteString(".")
	return b.String()
}

func extractPrompt(fields []FieldSpec) string {
	var b strings.Builder
	b.WriteString("Extract data about an event from the user's message.\n\nFIELDS:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}
	b.WriteString("\nRULES:\n")
	b.WriteString("- Only extract what the message states.\n")
	b.WriteString("- Use an empty string \"\" for anything not mentioned.\n")
	b.WriteString("- Answer with a single valid JSON object whose keys are exactly the field names.\n")
	return b.String()
}

func simplifiedExtractPrompt(fields []FieldSpec) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return "Return ONLY a JSON object with these keys: " + strings.Join(names, ", ") +
		". Use \"\" for unknown values."
}
