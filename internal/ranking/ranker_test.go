package ranking

import (
	"errors"
	"math"
	"testing"

	"solhype/internal/domain"
)

// Records built to score 90, 70 and 95 respectively.
func scenarioRecords() []domain.TokenRecord {
	change := 10.0
	return []domain.TokenRecord{
		{
			// 20 organic + 15 social + 20 volume + 5 holders + 8 mint + 7 freeze + 10 mcap + 5 liquidity = 90
			Mint: "mint-90", Symbol: "NINETY", OrganicScore: 80,
			Socials:      domain.Socials{Website: "w", Twitter: "t"},
			BuyVolume24h: 200_000, HolderCount: 200,
			MintAuthorityDisabled: true, FreezeAuthorityDisabled: true,
			MarketCap: 2_000_000, Liquidity: 20_000,
		},
		{
			// 15 organic + 8 social + 15 volume + 2 holders + 8 mint + 7 freeze + 7 mcap + 0 liquidity + 8 price = 70
			Mint: "mint-70", Symbol: "SEVENTY", OrganicScore: 60,
			Socials:      domain.Socials{Twitter: "t"},
			BuyVolume24h: 20_000, HolderCount: 20,
			MintAuthorityDisabled: true, FreezeAuthorityDisabled: true,
			MarketCap: 150_000, Liquidity: 5_000, PriceChange24h: &change,
		},
		{
			// 20 organic + 15 social + 20 volume + 5 holders + 8 mint + 7 freeze + 10 mcap + 10 liquidity = 95
			Mint: "mint-95", Symbol: "NINETYFIVE", OrganicScore: 95,
			Socials:      domain.Socials{Website: "w", Twitter: "t"},
			BuyVolume24h: 500_000, HolderCount: 1_000,
			MintAuthorityDisabled: true, FreezeAuthorityDisabled: true,
			MarketCap: 3_000_000, Liquidity: 900_000,
		},
	}
}

func TestRankScenarioOrder(t *testing.T) {
	ranked := Rank(scenarioRecords())
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked tokens, got %d", len(ranked))
	}
	wantScores := []int{95, 90, 70}
	wantMints := []string{"mint-95", "mint-90", "mint-70"}
	for i := range ranked {
		if ranked[i].Score != wantScores[i] || ranked[i].Mint != wantMints[i] {
			t.Fatalf("position %d: expected %s=%d, got %s=%d", i, wantMints[i], wantScores[i], ranked[i].Mint, ranked[i].Score)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	records := []domain.TokenRecord{
		{Mint: "first"},
		{Mint: "second"},
		{Mint: "third", OrganicScore: 99},
		{Mint: "fourth"},
	}
	ranked := Rank(records)
	want := []string{"third", "first", "second", "fourth"}
	for i, m := range want {
		if ranked[i].Mint != m {
			t.Fatalf("position %d: expected %s, got %s", i, m, ranked[i].Mint)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Score < ranked[i].Score {
			t.Fatalf("not sorted descending at %d", i)
		}
	}
}

func TestRankSkipsMalformed(t *testing.T) {
	records := []domain.TokenRecord{
		{Mint: ""},
		{Mint: "nan", Liquidity: math.NaN()},
		{Mint: "ok"},
	}
	ranked := Rank(records)
	if len(ranked) != 1 || ranked[0].Mint != "ok" {
		t.Fatalf("expected only the valid record, got %+v", ranked)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(domain.TokenRecord{}); !errors.Is(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	inf := math.Inf(1)
	if err := Validate(domain.TokenRecord{Mint: "m", PriceChange24h: &inf}); !errors.Is(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected malformed error for infinite price change, got %v", err)
	}
	if err := Validate(domain.TokenRecord{Mint: "m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTop(t *testing.T) {
	ranked := Rank(scenarioRecords())
	if got := Top(ranked, 2); len(got) != 2 || got[0].Mint != "mint-95" {
		t.Fatalf("unexpected top 2: %+v", got)
	}
	if got := Top(ranked, 10); len(got) != 3 {
		t.Fatalf("expected all 3, got %d", len(got))
	}
	if got := Top(ranked, 0); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
