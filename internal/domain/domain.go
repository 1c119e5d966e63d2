package domain

import "time"

type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentNeutral Sentiment = "neutral"
	SentimentBearish Sentiment = "bearish"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Socials holds the optional project links a provider reports for a token.
type Socials struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
}

// TokenRecord is a snapshot of a token's market and trust attributes as
// returned by the market-data provider.
type TokenRecord struct {
	Mint                    string
	Symbol                  string
	Name                    string
	Decimals                int
	Socials                 Socials
	MintAuthorityDisabled   bool
	FreezeAuthorityDisabled bool
	HolderCount             int
	OrganicScore            float64
	OrganicScoreLabel       string
	MarketCap               float64
	Liquidity               float64
	USDPrice                float64
	BuyVolume24h            float64
	SellVolume24h           float64
	// PriceChange24h is nil when the provider did not report it.
	PriceChange24h *float64
	Suspicious     bool
	Tags           []string
}

func (t TokenRecord) Volume24h() float64 {
	return t.BuyVolume24h + t.SellVolume24h
}

// ScoredToken is the output of the scorer for one TokenRecord.
type ScoredToken struct {
	Mint           string    `json:"mint"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	Sentiment      Sentiment `json:"sentiment"`
	Risk           RiskLevel `json:"risk_level"`
	Factors        []string  `json:"key_factors"`
	Analysis       string    `json:"analysis_reason"`
	MarketCap      float64   `json:"market_cap,omitempty"`
	Volume24h      float64   `json:"daily_volume,omitempty"`
	Liquidity      float64   `json:"liquidity,omitempty"`
	PriceChange24h *float64  `json:"price_change_24h,omitempty"`
	Socials        Socials   `json:"extensions"`
}

// AnalysisEntry is a ScoredToken as recorded in the history, with the rank
// it held in its batch and the time it was stored.
type AnalysisEntry struct {
	ScoredToken
	Rank       int       `json:"rank"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// AnalysisHistory is the persisted best-token record of one loop.
type AnalysisHistory struct {
	LastAnalysis     time.Time       `json:"last_analysis"`
	BestToken        *AnalysisEntry  `json:"best_token,omitempty"`
	PreviousAnalyses []AnalysisEntry `json:"previous_analyses"`
}

// BestMint returns the mint of the current best token, or "" when none is stored.
func (h AnalysisHistory) BestMint() string {
	if h.BestToken == nil {
		return ""
	}
	return h.BestToken.Mint
}
