package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"solhype/internal/domain"

	"github.com/dghubble/oauth1"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const twitterAPIBaseURL = "https://api.twitter.com/2"

type TwitterCredentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

func (c TwitterCredentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// TwitterNotifier posts tweets through the v2 API. The destination argument
// is ignored; tweets go to the authenticated account.
type TwitterNotifier struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewTwitterNotifier(ctx context.Context, creds TwitterCredentials, tracer trace.Tracer) *TwitterNotifier {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	return &TwitterNotifier{
		client:  config.Client(ctx, token),
		baseURL: twitterAPIBaseURL,
		tracer:  tracer,
	}
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Detail string `json:"detail"`
}

func (n *TwitterNotifier) Send(ctx context.Context, _ string, message string) (Delivery, error) {
	ctx, span := n.tracer.Start(ctx, "notify.twitter.send")
	defer span.End()

	if message == "" {
		return Delivery{}, fmt.Errorf("%w: empty tweet", domain.ErrDelivery)
	}
	if count := len([]rune(message)); count > TweetMaxLength {
		return Delivery{}, fmt.Errorf("%w: tweet has %d characters, limit is %d", domain.ErrDelivery, count, TweetMaxLength)
	}

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: encode tweet: %v", domain.ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/tweets", bytes.NewReader(payload))
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: twitter: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Delivery{}, fmt.Errorf("%w: twitter API error %d: %s", domain.ErrDelivery, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tweetResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Data.ID == "" {
		return Delivery{}, fmt.Errorf("%w: unexpected twitter response: %s", domain.ErrDelivery, strings.TrimSpace(string(body)))
	}

	d := Delivery{
		MessageID: out.Data.ID,
		URL:       "https://twitter.com/i/web/status/" + out.Data.ID,
	}
	log.Info().Str("tweet_id", d.MessageID).Str("url", d.URL).Msg("tweet posted")
	return d, nil
}
