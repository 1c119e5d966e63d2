// Package ranking scores a batch of token records and orders them best first.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"solhype/internal/domain"
	"solhype/internal/scoring"

	"github.com/rs/zerolog/log"
)

// Rank scores every record and returns them sorted by score descending.
// Ties keep input order. Malformed records are skipped.
func Rank(records []domain.TokenRecord) []domain.ScoredToken {
	ranked := make([]domain.ScoredToken, 0, len(records))
	for i, rec := range records {
		scored, err := scoreRecord(rec)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("mint", rec.Mint).Msg("skipping token record")
			continue
		}
		ranked = append(ranked, scored)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns at most n leading entries of an already ranked list.
func Top(ranked []domain.ScoredToken, n int) []domain.ScoredToken {
	if n <= 0 {
		return nil
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Validate reports whether a record carries enough data to be scored.
func Validate(rec domain.TokenRecord) error {
	if rec.Mint == "" {
		return fmt.Errorf("%w: empty mint", domain.ErrMalformedRecord)
	}
	for name, v := range map[string]float64{
		"organic_score": rec.OrganicScore,
		"market_cap":    rec.MarketCap,
		"liquidity":     rec.Liquidity,
		"buy_volume":    rec.BuyVolume24h,
		"sell_volume":   rec.SellVolume24h,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", domain.ErrMalformedRecord, name)
		}
	}
	if rec.PriceChange24h != nil && (math.IsNaN(*rec.PriceChange24h) || math.IsInf(*rec.PriceChange24h, 0)) {
		return fmt.Errorf("%w: price_change is not finite", domain.ErrMalformedRecord)
	}
	return nil
}

func scoreRecord(rec domain.TokenRecord) (scored domain.ScoredToken, err error) {
	if err := Validate(rec); err != nil {
		return domain.ScoredToken{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrMalformedRecord, r)
		}
	}()
	return scoring.Score(rec), nil
}
