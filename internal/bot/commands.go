package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"solhype/internal/domain"
	"solhype/internal/notify"
	"solhype/internal/provider"

	"github.com/rs/zerolog/log"
)

const (
	maxAddressesPerMessage = 3
	replyError             = "❌ Sorry, I encountered an error processing your request. Please try again later."
	twitterNotConfigured   = "❌ Twitter posting not configured. Please set up Twitter API credentials."
)

type LoopController interface {
	Start() bool
	Stop() bool
	Status() domain.LoopStatus
}

type TokenAnalyzer interface {
	Analyze(ctx context.Context, mint string) (domain.ScoredToken, error)
	Best(ctx context.Context, limit int) ([]domain.ScoredToken, error)
}

type HistoryReader interface {
	Load(ctx context.Context) (domain.AnalysisHistory, error)
}

// Commands produces the replies for every chat command. A nil Posting means
// Twitter credentials are missing; leave the field unset rather than storing
// a typed nil.
type Commands struct {
	Discovery LoopController
	Posting   LoopController
	Tokens    TokenAnalyzer
	History   HistoryReader
}

func (c *Commands) Ping() string { return "pong" }

func (c *Commands) StartDiscovery() string {
	if c.Discovery == nil {
		return "❌ Token discovery not configured."
	}
	if !c.Discovery.Start() {
		return "✅ Token discovery scheduler is already running."
	}
	return fmt.Sprintf("🤖 Token discovery scheduler started! I will analyze new tokens every %s.",
		formatInterval(c.Discovery.Status().Interval))
}

func (c *Commands) StopDiscovery() string {
	if c.Discovery == nil {
		return "❌ Token discovery not configured."
	}
	if !c.Discovery.Stop() {
		return "❌ Token discovery scheduler is not running."
	}
	return "⏹️ Token discovery scheduler stopped."
}

func (c *Commands) DiscoveryStatus() string {
	if c.Discovery == nil {
		return "❌ Token discovery not configured."
	}
	s := c.Discovery.Status()
	if s.Destination == "" {
		s.Destination = "Not configured"
	}
	return notify.FormatStatus("🤖 Token Discovery Status", "/start_discovery", "/stop_discovery", s)
}

func (c *Commands) StartTwitter() string {
	if c.Posting == nil {
		return twitterNotConfigured
	}
	if !c.Posting.Start() {
		return "✅ Twitter posting scheduler is already running."
	}
	return fmt.Sprintf("🐦 Twitter posting scheduler started! I will post token analyses every %s.",
		formatInterval(c.Posting.Status().Interval))
}

func (c *Commands) StopTwitter() string {
	if c.Posting == nil {
		return "❌ Twitter posting not configured."
	}
	if !c.Posting.Stop() {
		return "❌ Twitter posting scheduler is not running."
	}
	return "⏹️ Twitter posting scheduler stopped."
}

func (c *Commands) TwitterStatus() string {
	if c.Posting == nil {
		return twitterNotConfigured
	}
	s := c.Posting.Status()
	s.Destination = ""
	return notify.FormatStatus("🐦 Twitter Posting Status", "/start_twitter", "/stop_twitter", s)
}

// Analyze replies to /analyze <mint>.
func (c *Commands) Analyze(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /analyze <mint address>"
	}
	return c.analyzeMint(ctx, args[0])
}

// Best replies to /best [count].
func (c *Commands) Best(ctx context.Context, args []string) string {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return "Usage: /best [count]"
		}
		limit = n
	}

	tokens, err := c.Tokens.Best(ctx, limit)
	switch {
	case errors.Is(err, domain.ErrNoResults):
		return notify.FormatBest(nil)
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "❌ Token data provider is unavailable right now. Please try again later."
	case err != nil:
		log.Error().Err(err).Msg("best tokens lookup failed")
		return replyError
	}
	return notify.FormatBest(tokens)
}

func (c *Commands) ShowHistory(ctx context.Context) string {
	if c.History == nil {
		return "No analysis recorded yet."
	}
	h, err := c.History.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("history lookup failed")
		return replyError
	}
	return notify.FormatHistory(h)
}

// Text replies to a free-form message. It returns one reply per distinct mint
// address found, up to a small cap.
func (c *Commands) Text(ctx context.Context, text string) []string {
	addrs := provider.ExtractMintAddresses(text)
	if len(addrs) == 0 {
		return []string{"👋 Send me a Solana token mint address and I will analyze it for you."}
	}
	if len(addrs) > maxAddressesPerMessage {
		addrs = addrs[:maxAddressesPerMessage]
	}

	replies := make([]string, 0, len(addrs))
	for _, mint := range addrs {
		replies = append(replies, c.analyzeMint(ctx, mint))
	}
	return replies
}

func (c *Commands) analyzeMint(ctx context.Context, mint string) string {
	if !provider.IsMintAddress(mint) {
		return fmt.Sprintf("❌ Invalid Solana mint address: `%s`", mint)
	}

	token, err := c.Tokens.Analyze(ctx, mint)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoResults):
		return fmt.Sprintf("❌ Token not found: `%s`", mint)
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "❌ Token data provider is unavailable right now. Please try again later."
	case err != nil:
		log.Error().Err(err).Str("mint", mint).Msg("token analysis failed")
		return replyError
	}
	return notify.FormatAnalysis(token)
}

func formatInterval(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
