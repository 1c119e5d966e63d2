// Package scoring rates a token record with a fixed additive heuristic.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"solhype/internal/domain"

	"github.com/dustin/go-humanize"
)

// Score evaluates every rule in order and sums the points. It never fails:
// fields the provider did not report contribute nothing.
func Score(t domain.TokenRecord) domain.ScoredToken {
	total := 0
	factors := make([]string, 0, len(rules))
	for _, r := range rules {
		o := r.eval(t)
		total += o.points
		if o.factor != "" {
			factors = append(factors, o.factor)
		}
	}

	sentiment, risk := Classify(total)

	return domain.ScoredToken{
		Mint:           t.Mint,
		Symbol:         t.Symbol,
		Name:           t.Name,
		Score:          total,
		Sentiment:      sentiment,
		Risk:           risk,
		Factors:        factors,
		Analysis:       analysisText(t, total, sentiment, risk),
		MarketCap:      t.MarketCap,
		Volume24h:      t.Volume24h(),
		Liquidity:      t.Liquidity,
		PriceChange24h: copyFloat(t.PriceChange24h),
		Socials:        t.Socials,
	}
}

// Classify maps a total score to sentiment and risk. Scores outside 0..100
// are not clamped.
func Classify(score int) (domain.Sentiment, domain.RiskLevel) {
	switch {
	case score >= 80:
		return domain.SentimentBullish, domain.RiskLow
	case score >= 60:
		return domain.SentimentBullish, domain.RiskMedium
	case score >= 40:
		return domain.SentimentNeutral, domain.RiskMedium
	default:
		return domain.SentimentBearish, domain.RiskHigh
	}
}

func analysisText(t domain.TokenRecord, score int, sentiment domain.Sentiment, risk domain.RiskLevel) string {
	parts := []string{
		fmt.Sprintf("%s ($%s) analysis:", t.Name, t.Symbol),
		fmt.Sprintf("Overall Score: %d/100 (%s)", score, strings.ToUpper(string(sentiment))),
		fmt.Sprintf("Risk Level: %s", strings.ToUpper(string(risk))),
	}

	if t.OrganicScoreLabel != "" && !strings.EqualFold(t.OrganicScoreLabel, "low") {
		parts = append(parts, fmt.Sprintf("✅ Good organic score (%s) adds credibility.", t.OrganicScoreLabel))
	} else {
		label := t.OrganicScoreLabel
		if label == "" {
			label = "unknown"
		}
		parts = append(parts, fmt.Sprintf("⚠️ Low organic score (%s) - exercise caution.", label))
	}

	if vol := t.Volume24h(); vol > 10_000 {
		parts = append(parts, fmt.Sprintf("📊 Good trading activity with $%s daily volume.", FormatUSD(vol)))
	}

	switch {
	case t.MintAuthorityDisabled && t.FreezeAuthorityDisabled:
		parts = append(parts, "🔒 Both mint and freeze authorities are disabled - good tokenomics.")
	case t.MintAuthorityDisabled:
		parts = append(parts, "🔒 Mint authority disabled but freeze authority present.")
	}

	socials := 0
	if t.Socials.Website != "" {
		socials++
	}
	if t.Socials.Twitter != "" {
		socials++
	}
	switch {
	case socials >= 2:
		parts = append(parts, "🌐 Strong social media presence across multiple platforms.")
	case socials == 1:
		parts = append(parts, "🔗 Has some social media presence.")
	}

	return strings.Join(parts, " ")
}

// FormatUSD renders a dollar amount rounded to whole units with thousands separators.
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.Comma(int64(math.Round(v)))
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
