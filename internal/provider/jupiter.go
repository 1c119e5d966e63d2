package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solhype/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultJupiterBaseURL = "https://lite-api.jup.ag"
	DefaultTimeout        = 10 * time.Second
	userAgent             = "SolHypeBot/1.0"
	maxErrorBody          = 512
)

// JupiterOptions tunes the provider. Zero values fall back to defaults.
type JupiterOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit breaker.
	FailureThreshold uint32
	CooldownPeriod   time.Duration
}

// JupiterProvider reads token listings from the Jupiter lite token API.
type JupiterProvider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	tracer  trace.Tracer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewJupiterProvider(tracer trace.Tracer, opts JupiterOptions) *JupiterProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultJupiterBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.CooldownPeriod <= 0 {
		opts.CooldownPeriod = 30 * time.Second
	}

	threshold := opts.FailureThreshold
	st := gobreaker.Settings{
		Name:    "jupiter",
		Timeout: opts.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNoResults) || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}

	return &JupiterProvider{
		client:  &http.Client{},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// FetchRecent returns up to limit recently listed tokens, newest first as the
// API orders them. Records that cannot be mapped are dropped.
func (p *JupiterProvider) FetchRecent(ctx context.Context, limit int) ([]domain.TokenRecord, error) {
	ctx, span := p.tracer.Start(ctx, "jupiter.fetch-recent")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	records, err := p.fetchList(ctx, p.baseURL+"/tokens/v2/recent")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch recent tokens: %w", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	span.SetAttributes(attribute.Int("tokens", len(records)))
	return records, nil
}

// FetchByMint looks up a single token by its mint address.
func (p *JupiterProvider) FetchByMint(ctx context.Context, mint string) (domain.TokenRecord, error) {
	ctx, span := p.tracer.Start(ctx, "jupiter.fetch-by-mint")
	defer span.End()
	span.SetAttributes(attribute.String("mint", mint))

	records, err := p.fetchList(ctx, p.searchURL(mint, 0))
	if errors.Is(err, domain.ErrNoResults) {
		return domain.TokenRecord{}, fmt.Errorf("token %s: %w", mint, domain.ErrNotFound)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.TokenRecord{}, fmt.Errorf("fetch token %s: %w", mint, err)
	}

	for _, rec := range records {
		if rec.Mint == mint {
			return rec, nil
		}
	}
	return domain.TokenRecord{}, fmt.Errorf("token %s: %w", mint, domain.ErrNotFound)
}

// Search runs a free-text query against symbol, name and mint.
func (p *JupiterProvider) Search(ctx context.Context, query string, limit int) ([]domain.TokenRecord, error) {
	ctx, span := p.tracer.Start(ctx, "jupiter.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	records, err := p.fetchList(ctx, p.searchURL(query, limit))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("search tokens %q: %w", query, err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (p *JupiterProvider) searchURL(query string, limit int) string {
	q := url.Values{}
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return p.baseURL + "/tokens/v2/search?" + q.Encode()
}

func (p *JupiterProvider) fetchList(ctx context.Context, endpoint string) ([]domain.TokenRecord, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		body, err := p.doRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return decodeTokens(body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return res.([]domain.TokenRecord), nil
}

func (p *JupiterProvider) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrProviderUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: jupiter API error %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrProviderUnavailable, err)
	}
	return body, nil
}

type jupiterToken struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Decimals          int      `json:"decimals"`
	Twitter           string   `json:"twitter"`
	Website           string   `json:"website"`
	Telegram          string   `json:"telegram"`
	Discord           string   `json:"discord"`
	HolderCount       int      `json:"holderCount"`
	OrganicScore      float64  `json:"organicScore"`
	OrganicScoreLabel string   `json:"organicScoreLabel"`
	Tags              []string `json:"tags"`
	MarketCap         float64  `json:"mcap"`
	USDPrice          float64  `json:"usdPrice"`
	Liquidity         float64  `json:"liquidity"`
	Audit             *struct {
		IsSus                   bool `json:"isSus"`
		MintAuthorityDisabled   bool `json:"mintAuthorityDisabled"`
		FreezeAuthorityDisabled bool `json:"freezeAuthorityDisabled"`
	} `json:"audit"`
	Stats24h *struct {
		PriceChange *float64 `json:"priceChange"`
		BuyVolume   float64  `json:"buyVolume"`
		SellVolume  float64  `json:"sellVolume"`
	} `json:"stats24h"`
}

// decodeTokens maps the API list into records. Individual entries that fail
// to decode or lack a mint are logged and skipped.
func decodeTokens(body []byte) ([]domain.TokenRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse token list: %v", domain.ErrProviderUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNoResults
	}

	records := make([]domain.TokenRecord, 0, len(raw))
	skipped := 0
	for i, item := range raw {
		var tok jupiterToken
		if err := json.Unmarshal(item, &tok); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping undecodable token")
			skipped++
			continue
		}
		if tok.ID == "" {
			log.Warn().Err(domain.ErrMalformedRecord).Int("index", i).Msg("skipping token without mint")
			skipped++
			continue
		}
		records = append(records, tok.record())
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: all %d tokens malformed", domain.ErrNoResults, skipped)
	}
	return records, nil
}

func (t jupiterToken) record() domain.TokenRecord {
	rec := domain.TokenRecord{
		Mint:     t.ID,
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: t.Decimals,
		Socials: domain.Socials{
			Website:  t.Website,
			Twitter:  t.Twitter,
			Telegram: t.Telegram,
			Discord:  t.Discord,
		},
		HolderCount:       t.HolderCount,
		OrganicScore:      t.OrganicScore,
		OrganicScoreLabel: t.OrganicScoreLabel,
		MarketCap:         t.MarketCap,
		Liquidity:         t.Liquidity,
		USDPrice:          t.USDPrice,
		Tags:              t.Tags,
	}
	if t.Audit != nil {
		rec.MintAuthorityDisabled = t.Audit.MintAuthorityDisabled
		rec.FreezeAuthorityDisabled = t.Audit.FreezeAuthorityDisabled
		rec.Suspicious = t.Audit.IsSus
	}
	if t.Stats24h != nil {
		rec.BuyVolume24h = t.Stats24h.BuyVolume
		rec.SellVolume24h = t.Stats24h.SellVolume
		if t.Stats24h.PriceChange != nil {
			v := *t.Stats24h.PriceChange
			rec.PriceChange24h = &v
		}
	}
	return rec
}
