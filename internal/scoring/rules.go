package scoring

import (
	"fmt"

	"solhype/internal/domain"
)

// outcome is what a single rule contributes. An empty factor adds nothing to
// the factor list.
type outcome struct {
	points int
	factor string
}

type rule struct {
	name string
	eval func(domain.TokenRecord) outcome
}

// tier awards points when the measured value is strictly above the bound.
type tier struct {
	above  float64
	points int
	factor string
}

// pick walks tiers from highest bound down and falls back to the last
// argument when no bound is exceeded.
func pick(value float64, tiers []tier, fallback outcome) outcome {
	for _, t := range tiers {
		if value > t.above {
			return outcome{points: t.points, factor: t.factor}
		}
	}
	return fallback
}

// rules is evaluated in order; the order fixes the factor list order.
var rules = []rule{
	{name: "organic", eval: organicRule},
	{name: "social", eval: socialRule},
	{name: "volume", eval: volumeRule},
	{name: "holders", eval: holdersRule},
	{name: "mint_authority", eval: mintAuthorityRule},
	{name: "freeze_authority", eval: freezeAuthorityRule},
	{name: "suspicious", eval: suspiciousRule},
	{name: "market_cap", eval: marketCapRule},
	{name: "liquidity", eval: liquidityRule},
	{name: "price_change", eval: priceChangeRule},
}

func organicRule(t domain.TokenRecord) outcome {
	label := t.OrganicScoreLabel
	if label == "" {
		label = "unknown"
	}
	return pick(t.OrganicScore, []tier{
		{above: 75, points: 20, factor: fmt.Sprintf("✅ High organic score (%s)", label)},
		{above: 50, points: 15, factor: fmt.Sprintf("🟢 Good organic score (%s)", label)},
		{above: 25, points: 10, factor: fmt.Sprintf("🟡 Moderate organic score (%s)", label)},
	}, outcome{points: 5, factor: fmt.Sprintf("🔴 Low organic score (%s)", label)})
}

func socialRule(t domain.TokenRecord) outcome {
	points := 0
	if t.Socials.Website != "" {
		points += 7
	}
	if t.Socials.Twitter != "" {
		points += 8
	}
	switch {
	case points >= 12:
		return outcome{points: points, factor: "🌐 Strong social presence"}
	case points >= 6:
		return outcome{points: points, factor: "🔗 Moderate social presence"}
	default:
		return outcome{points: points, factor: "📱 Limited social presence"}
	}
}

func volumeRule(t domain.TokenRecord) outcome {
	if t.BuyVolume24h == 0 && t.SellVolume24h == 0 {
		return outcome{factor: "📊 Volume data unavailable"}
	}
	return pick(t.Volume24h(), []tier{
		{above: 100_000, points: 20, factor: "📊 High trading volume"},
		{above: 10_000, points: 15, factor: "📊 Good trading volume"},
		{above: 1_000, points: 10, factor: "📊 Moderate trading volume"},
	}, outcome{points: 5, factor: "📊 Low trading volume"})
}

func holdersRule(t domain.TokenRecord) outcome {
	if t.HolderCount <= 0 {
		return outcome{}
	}
	n := t.HolderCount
	return pick(float64(n), []tier{
		{above: 100, points: 5, factor: fmt.Sprintf("👥 High holder count (%d)", n)},
		{above: 50, points: 3, factor: fmt.Sprintf("👥 Good holder count (%d)", n)},
		{above: 10, points: 2, factor: fmt.Sprintf("👥 Moderate holder count (%d)", n)},
	}, outcome{factor: fmt.Sprintf("👥 Low holder count (%d)", n)})
}

func mintAuthorityRule(t domain.TokenRecord) outcome {
	if t.MintAuthorityDisabled {
		return outcome{points: 8, factor: "🔒 Mint authority disabled"}
	}
	return outcome{factor: "⚠️ Mint authority present"}
}

func freezeAuthorityRule(t domain.TokenRecord) outcome {
	if t.FreezeAuthorityDisabled {
		return outcome{points: 7, factor: "🔓 Freeze authority disabled"}
	}
	return outcome{factor: "⚠️ Freeze authority present"}
}

func suspiciousRule(t domain.TokenRecord) outcome {
	if t.Suspicious {
		return outcome{points: -10, factor: "🚨 Marked as suspicious"}
	}
	return outcome{}
}

func marketCapRule(t domain.TokenRecord) outcome {
	if t.MarketCap <= 0 {
		return outcome{}
	}
	return pick(t.MarketCap, []tier{
		{above: 10_000_000, points: 8, factor: "💰 Large market cap"},
		{above: 1_000_000, points: 10, factor: "💰 Good market cap potential"},
		{above: 100_000, points: 7, factor: "💰 Small market cap"},
	}, outcome{points: 5, factor: "💰 Micro market cap"})
}

func liquidityRule(t domain.TokenRecord) outcome {
	if t.Liquidity <= 0 {
		return outcome{}
	}
	return pick(t.Liquidity, []tier{
		{above: 500_000, points: 10, factor: "🌊 High liquidity"},
		{above: 100_000, points: 8, factor: "🌊 Good liquidity"},
		{above: 10_000, points: 5, factor: "🌊 Low liquidity"},
	}, outcome{factor: "🌊 Very low liquidity"})
}

func priceChangeRule(t domain.TokenRecord) outcome {
	if t.PriceChange24h == nil {
		return outcome{}
	}
	return pick(*t.PriceChange24h, []tier{
		{above: 20, points: 10, factor: "🚀 Strong 24h performance"},
		{above: 5, points: 8, factor: "📈 Positive 24h performance"},
		{above: -5, points: 5, factor: "📊 Stable 24h performance"},
	}, outcome{points: 2, factor: "📉 Negative 24h performance"})
}
