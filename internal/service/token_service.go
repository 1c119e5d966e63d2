package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solhype/internal/domain"
	"solhype/internal/ranking"
	"solhype/internal/scoring"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTokenCacheTTL = 2 * time.Minute
	// BestCandidates is how many recent listings Best analyzes.
	BestCandidates       = 20
	DefaultBestLimit     = 5
	bestFactors          = 3
)

type TokenSource interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.TokenRecord, error)
	FetchByMint(ctx context.Context, mint string) (domain.TokenRecord, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// TokenService answers on-demand lookups for chat and HTTP callers. Scored
// lookups are cached in Redis when a client is configured.
type TokenService struct {
	tracer trace.Tracer
	source TokenSource
	redis  RedisClient
	ttl    time.Duration
}

func NewTokenService(tracer trace.Tracer, source TokenSource, redisClient RedisClient, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenCacheTTL
	}
	return &TokenService{
		tracer: tracer,
		source: source,
		redis:  redisClient,
		ttl:    ttl,
	}
}

// Analyze scores the token with the given mint.
func (s *TokenService) Analyze(ctx context.Context, mint string) (domain.ScoredToken, error) {
	ctx, span := s.tracer.Start(ctx, "token-service.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("mint", mint))

	if s.redis != nil {
		cached, err := s.getCache(ctx, mint)
		if err != nil {
			log.Warn().Err(err).Str("mint", mint).Msg("redis cache read error")
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return *cached, nil
		}
	}

	rec, err := s.source.FetchByMint(ctx, mint)
	if err != nil {
		return domain.ScoredToken{}, err
	}
	if err := ranking.Validate(rec); err != nil {
		return domain.ScoredToken{}, err
	}

	scored := scoring.Score(rec)
	if s.redis != nil {
		if err := s.setCache(ctx, scored); err != nil {
			log.Warn().Err(err).Str("mint", mint).Msg("redis cache write error")
		}
	}
	return scored, nil
}

// Best ranks the most recent listings and returns the top limit entries,
// each trimmed to its leading factors.
func (s *TokenService) Best(ctx context.Context, limit int) ([]domain.ScoredToken, error) {
	ctx, span := s.tracer.Start(ctx, "token-service.best")
	defer span.End()

	if limit <= 0 {
		limit = DefaultBestLimit
	}
	if limit > BestCandidates {
		limit = BestCandidates
	}
	span.SetAttributes(attribute.Int("limit", limit))

	records, err := s.source.FetchRecent(ctx, BestCandidates)
	if err != nil {
		return nil, fmt.Errorf("best tokens: %w", err)
	}

	top := ranking.Top(ranking.Rank(records), limit)
	if len(top) == 0 {
		return nil, fmt.Errorf("best tokens: %w", domain.ErrNoResults)
	}

	out := make([]domain.ScoredToken, len(top))
	for i, t := range top {
		if len(t.Factors) > bestFactors {
			t.Factors = t.Factors[:bestFactors:bestFactors]
		}
		out[i] = t
	}
	return out, nil
}

func cacheKey(mint string) string { return "token:" + mint }

func (s *TokenService) setCache(ctx context.Context, t domain.ScoredToken) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, cacheKey(t.Mint), data, s.ttl).Err()
}

func (s *TokenService) getCache(ctx context.Context, mint string) (*domain.ScoredToken, error) {
	val, err := s.redis.Get(ctx, cacheKey(mint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t domain.ScoredToken
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return nil, err
	}
	return &t, nil
}
