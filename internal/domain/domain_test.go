package domain

import "testing"

func TestVolume24hSumsBuyAndSell(t *testing.T) {
	rec := TokenRecord{BuyVolume24h: 1500, SellVolume24h: 500}
	if got := rec.Volume24h(); got != 2000 {
		t.Fatalf("expected 2000, got %f", got)
	}
}

func TestBestMintEmptyHistory(t *testing.T) {
	var h AnalysisHistory
	if h.BestMint() != "" {
		t.Fatalf("expected empty mint, got %q", h.BestMint())
	}

	h.BestToken = &AnalysisEntry{ScoredToken: ScoredToken{Mint: "abc"}}
	if h.BestMint() != "abc" {
		t.Fatalf("expected abc, got %q", h.BestMint())
	}
}
