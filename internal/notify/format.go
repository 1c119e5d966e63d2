package notify

import (
	"fmt"
	"strings"
	"time"

	"solhype/internal/domain"
	"solhype/internal/scoring"
)

const (
	TelegramMaxLength = 4000
	TweetMaxLength    = 280
	truncationMarker  = "..."
)

// FormatDiscovery renders the group alert for a new best token.
func FormatDiscovery(e domain.AnalysisEntry) string {
	var b strings.Builder
	b.WriteString("🚨 *NEW TOP TOKEN DISCOVERED* 🚨\n\n")
	fmt.Fprintf(&b, "🪙 *%s* (`$%s`)\n", e.Name, e.Symbol)
	fmt.Fprintf(&b, "📊 *Score:* %d/100\n", e.Score)
	fmt.Fprintf(&b, "😊 *Sentiment:* %s\n", e.Sentiment)
	fmt.Fprintf(&b, "🏆 *Rank:* #%d\n\n", e.Rank)

	if e.MarketCap > 0 {
		fmt.Fprintf(&b, "💰 *Market Cap:* $%s\n", scoring.FormatUSD(e.MarketCap))
	}
	if e.Volume24h > 0 {
		fmt.Fprintf(&b, "📈 *24h Volume:* $%s\n", scoring.FormatUSD(e.Volume24h))
	}
	if e.PriceChange24h != nil {
		fmt.Fprintf(&b, "%s *24h Change:* %.2f%%\n", changeEmoji(*e.PriceChange24h), *e.PriceChange24h)
	}
	if e.Liquidity > 0 {
		fmt.Fprintf(&b, "💧 *Liquidity:* $%s\n", scoring.FormatUSD(e.Liquidity))
	}

	fmt.Fprintf(&b, "\n🔍 *Analysis:*\n%s\n\n", e.Analysis)

	if links := socialLinks(e.Socials); len(links) > 0 {
		fmt.Fprintf(&b, "🔗 *Links:* %s\n\n", strings.Join(links, " • "))
	}

	fmt.Fprintf(&b, "📋 *Contract:* `%s`\n", e.Mint)
	fmt.Fprintf(&b, "⏰ *Analyzed:* %s", e.AnalyzedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	return Truncate(b.String(), TelegramMaxLength)
}

// FormatAnalysis renders an on-demand token analysis reply.
func FormatAnalysis(t domain.ScoredToken) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🪙 *%s* (`$%s`)\n", t.Name, t.Symbol)
	fmt.Fprintf(&b, "📊 *Score:* %d/100 • %s • risk %s\n\n", t.Score, t.Sentiment, t.Risk)
	for _, f := range t.Factors {
		b.WriteString("• ")
		b.WriteString(f)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n%s\n\n📋 `%s`", t.Analysis, t.Mint)
	return Truncate(b.String(), TelegramMaxLength)
}

// FormatBest renders a numbered list of ranked tokens.
func FormatBest(tokens []domain.ScoredToken) string {
	if len(tokens) == 0 {
		return "No tokens found."
	}
	var b strings.Builder
	b.WriteString("🏆 *Best recent tokens*\n")
	for i, t := range tokens {
		fmt.Fprintf(&b, "\n%d. *%s* (`$%s`) %d/100 %s\n", i+1, t.Name, t.Symbol, t.Score, t.Sentiment)
		for _, f := range t.Factors {
			fmt.Fprintf(&b, "   %s\n", f)
		}
		fmt.Fprintf(&b, "   `%s`\n", t.Mint)
	}
	return Truncate(b.String(), TelegramMaxLength)
}

// FormatHistory renders the stored best token and its predecessors.
func FormatHistory(h domain.AnalysisHistory) string {
	if h.BestToken == nil {
		return "No analysis recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📚 *Current best:* %s (`$%s`) %d/100\n", h.BestToken.Name, h.BestToken.Symbol, h.BestToken.Score)
	fmt.Fprintf(&b, "Last analysis: %s\n", h.LastAnalysis.UTC().Format(time.RFC3339))
	if len(h.PreviousAnalyses) > 0 {
		b.WriteString("\nPrevious:\n")
		for _, p := range h.PreviousAnalyses {
			fmt.Fprintf(&b, "• %s (`$%s`) %d/100 at %s\n", p.Name, p.Symbol, p.Score, p.AnalyzedAt.UTC().Format(time.RFC3339))
		}
	}
	return Truncate(b.String(), TelegramMaxLength)
}

// FormatStatus renders a loop status reply. title, startCmd and stopCmd name
// the loop in the text.
func FormatStatus(title, startCmd, stopCmd string, s domain.LoopStatus) string {
	active := "🔴 Inactive"
	if s.Active {
		active = "🟢 Active"
	}
	running := "💤 No"
	if s.Running {
		running = "⚡ Yes"
	}
	next := "N/A"
	if s.Active && s.NextRun != nil {
		next = s.NextRun.UTC().Format("2006-01-02 15:04:05 MST")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", title)
	fmt.Fprintf(&b, "Status: %s\n", active)
	fmt.Fprintf(&b, "Currently Running: %s\n", running)
	if s.Destination != "" {
		fmt.Fprintf(&b, "Destination: `%s`\n", s.Destination)
	}
	fmt.Fprintf(&b, "Next Run: %s\n\n", next)
	fmt.Fprintf(&b, "Use %s to start or %s to stop.", startCmd, stopCmd)
	return b.String()
}

// Truncate shortens s to at most max runes, marking the cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= len(truncationMarker) {
		return string(r[:max])
	}
	return string(r[:max-len(truncationMarker)]) + truncationMarker
}

func changeEmoji(change float64) string {
	if change >= 0 {
		return "📈"
	}
	return "📉"
}

func socialLinks(s domain.Socials) []string {
	var links []string
	if s.Website != "" {
		links = append(links, fmt.Sprintf("[Website](%s)", s.Website))
	}
	if s.Twitter != "" {
		links = append(links, fmt.Sprintf("[Twitter](%s)", s.Twitter))
	}
	if s.Telegram != "" {
		links = append(links, fmt.Sprintf("[Telegram](%s)", s.Telegram))
	}
	if s.Discord != "" {
		links = append(links, fmt.Sprintf("[Discord](%s)", s.Discord))
	}
	return links
}
