// Package compose builds the short-form post for the current top token.
package compose

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"solhype/internal/domain"
)

const MaxTweetLength = 280

// Candidate is a ranked token offered to a Writer.
type Candidate struct {
	Token    domain.ScoredToken
	Verified bool
}

// Writer turns the leading candidates into a post. The first candidate is
// the one being featured.
type Writer interface {
	Write(ctx context.Context, candidates []Candidate) (string, error)
}

// HeuristicWriter formats the featured token with a fixed template.
type HeuristicWriter struct{}

func (HeuristicWriter) Write(_ context.Context, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("compose: %w", domain.ErrNoResults)
	}
	return Tweet(candidates[0].Token, candidates[0].Verified), nil
}

// Tweet renders t in the long form, falling back to a compact form when the
// long one exceeds MaxTweetLength.
func Tweet(t domain.ScoredToken, verified bool) string {
	marker := sentimentEmoji(t.Sentiment)

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 $%s - %s\n", t.Symbol, t.Name)
	if verified {
		b.WriteString("✅ Verified • ")
	}
	fmt.Fprintf(&b, "📊 Score: %d/100\n", t.Score)
	fmt.Fprintf(&b, "%s %s\n", marker, t.Sentiment)
	if t.Volume24h > 0 {
		fmt.Fprintf(&b, "💰 Volume: $%.1fM\n", t.Volume24h/1_000_000)
	}
	if t.PriceChange24h != nil {
		fmt.Fprintf(&b, "%s 24h: %.1f%%\n", changeEmoji(*t.PriceChange24h), *t.PriceChange24h)
	}
	b.WriteString("\n#Solana #DeFi #Crypto #TokenAnalysis")

	if tweet := b.String(); utf8.RuneCountInString(tweet) <= MaxTweetLength {
		return tweet
	}

	b.Reset()
	fmt.Fprintf(&b, "🚀 $%s - %s\n", t.Symbol, t.Name)
	fmt.Fprintf(&b, "📊 Score: %d/100 • %s %s\n", t.Score, marker, t.Sentiment)
	if t.Volume24h > 0 {
		fmt.Fprintf(&b, "💰 Vol: $%.1fM ", t.Volume24h/1_000_000)
	}
	if t.PriceChange24h != nil {
		fmt.Fprintf(&b, "%s %.1f%%\n", changeEmoji(*t.PriceChange24h), *t.PriceChange24h)
	}
	b.WriteString("#Solana #DeFi #Crypto")
	return clip(b.String(), MaxTweetLength)
}

func sentimentEmoji(s domain.Sentiment) string {
	switch s {
	case domain.SentimentBullish:
		return "📈"
	case domain.SentimentBearish:
		return "📉"
	default:
		return "➡️"
	}
}

func changeEmoji(change float64) string {
	if change >= 0 {
		return "📈"
	}
	return "📉"
}

// clip guards against token names long enough to overflow the compact form.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
