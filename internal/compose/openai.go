package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const defaultModel = "gpt-4o-mini"

type chatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIWriter asks a chat model for the post and falls back to a
// HeuristicWriter when the model fails or answers out of bounds.
type OpenAIWriter struct {
	client   chatClient
	model    string
	tracer   trace.Tracer
	fallback Writer
}

// NewOpenAIWriter returns nil when apiKey is empty.
func NewOpenAIWriter(apiKey, model string, tracer trace.Tracer) *OpenAIWriter {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIWriter{
		client:   &openAIClient{client: client},
		model:    model,
		tracer:   tracer,
		fallback: HeuristicWriter{},
	}
}

type promptToken struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Mint           string   `json:"mint"`
	Score          int      `json:"score"`
	Sentiment      string   `json:"sentiment"`
	Risk           string   `json:"risk_level"`
	Volume24h      float64  `json:"daily_volume"`
	PriceChange24h *float64 `json:"price_change_24h,omitempty"`
	Factors        []string `json:"key_factors"`
	Verified       bool     `json:"verified"`
}

func (w *OpenAIWriter) Write(ctx context.Context, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return w.fallback.Write(ctx, candidates)
	}
	ctx, span := w.tracer.Start(ctx, "compose.openai.write")
	defer span.End()

	tweet, err := w.ask(ctx, candidates)
	if err != nil {
		log.Warn().Err(err).Str("model", w.model).Msg("llm tweet failed, using template")
		return w.fallback.Write(ctx, candidates)
	}
	return tweet, nil
}

func (w *OpenAIWriter) ask(ctx context.Context, candidates []Candidate) (string, error) {
	tokens := make([]promptToken, 0, len(candidates))
	for _, c := range candidates {
		t := c.Token
		tokens = append(tokens, promptToken{
			Symbol:         t.Symbol,
			Name:           t.Name,
			Mint:           t.Mint,
			Score:          t.Score,
			Sentiment:      string(t.Sentiment),
			Risk:           string(t.Risk),
			Volume24h:      t.Volume24h,
			PriceChange24h: t.PriceChange24h,
			Factors:        t.Factors,
			Verified:       c.Verified,
		})
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}

	systemPrompt := fmt.Sprintf("You write one tweet about the first Solana token in the list. Mention its $symbol, score out of 100 and sentiment. End with #Solana #DeFi #Crypto. At most %d characters. Plain text only, no quotes, no financial advice.", MaxTweetLength)

	completion, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: w.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Tokens:\n" + string(data)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty tweet completion")
	}

	tweet := strings.Trim(strings.TrimSpace(completion.Choices[0].Message.Content), `"`)
	if tweet == "" {
		return "", fmt.Errorf("blank tweet completion")
	}
	if n := utf8.RuneCountInString(tweet); n > MaxTweetLength {
		return "", fmt.Errorf("tweet completion has %d characters", n)
	}
	if !strings.Contains(tweet, "$"+candidates[0].Token.Symbol) {
		return "", fmt.Errorf("tweet completion does not mention $%s", candidates[0].Token.Symbol)
	}
	return tweet, nil
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
