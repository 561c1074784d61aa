package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
	"golang.org/x/time/rate"
)

const (
	DefaultURL        = "https://gate.whapi.cloud/messages/text"
	DefaultTimeout    = 30 * time.Second
	defaultTypingTime = 2
	minPhoneDigits    = 10
	maxResponseBody   = 4 << 10
)

var (
	ErrNotConfigured = errors.New("whatsapp: token not configured")
	ErrInvalidPhone  = errors.New("whatsapp: invalid phone number")
)

type Config struct {
	Token string
	URL   string
	// Timeout bounds one send request.
	Timeout time.Duration
	// RatePerSecond limits sends; 0 disables the limiter.
	RatePerSecond float64
}

// Client sends text messages through the Whapi gateway.
type Client struct {
	token      string
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

func NewClient(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		token:      cfg.Token,
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return c
}

func (c *Client) Configured() bool { return c.token != "" }

// Send posts one message. A non-nil error means no answer was received;
// a non-2xx answer comes back as SendResult with OK false.
func (c *Client) Send(ctx context.Context, phone, body string) (entity.SendResult, error) {
	if c.token == "" {
		return entity.SendResult{}, ErrNotConfigured
	}
	phone = onlyDigits(phone)
	if len(phone) < minPhoneDigits {
		return entity.SendResult{}, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return entity.SendResult{}, fmt.Errorf("whatsapp: rate limiter: %w", err)
		}
	}

	payload, err := json.Marshal(SendMessageInput{
		To:         phone + "@s.whatsapp.net",
		Body:       body,
		TypingTime: defaultTypingTime,
	})
	if err != nil {
		return entity.SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return entity.SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.SendResult{}, fmt.Errorf("whatsapp: send to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	res := entity.SendResult{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       string(raw),
	}

	log := c.log.WithFields(logrus.Fields{"to": phone, "status": resp.StatusCode})
	if !res.OK {
		var parsed SendMessageResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
			log = log.WithField("error", parsed.Error.Message)
		}
		log.Warn("whapi rejected message")
		return res, nil
	}
	log.Debug("whapi accepted message")
	return res, nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
