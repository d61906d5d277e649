// Package brokerfeed is a small REST client for the broker's market data
// API: TOTP session login, token refresh, and historical candle fetch.
// Endpoints and headers follow the broker's published HTTP surface; the
// scanner only needs the candle route, so order and portfolio routes are
// out of scope here.
package brokerfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"
)

const (
	defaultTimeout = 7 * time.Second

	routeLogin   = "/rest/auth/v1/loginByPassword"
	routeRefresh = "/rest/auth/v1/generateTokens"
	routeLogout  = "/rest/secure/v1/logout"
	routeCandles = "/rest/secure/v1/getCandleData"
)

// Config holds the credentials and connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string // base32 seed, the 6-digit code is generated per login

	Timeout time.Duration // default 7s
}

// Client is the authenticated API client. Not goroutine-safe during
// Login/Refresh; do session management from one goroutine.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger

	accessToken  string
	refreshToken string
	feedToken    string

	// SessionExpiryHook is called when the API answers 401/403 on an
	// authenticated route. Optional.
	SessionExpiryHook func()
}

// NewClient builds a client. Login must be called before data requests.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// FeedToken returns the token the WebSocket feed authenticates with.
func (c *Client) FeedToken() string { return c.feedToken }

type loginResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	} `json:"data"`
}

// Login opens a session: the TOTP code is generated from the configured
// seed at call time, so re-login after expiry needs no operator input.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("totp generate: %w", err)
	}

	body := map[string]string{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, routeLogin, body, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.Status {
		return fmt.Errorf("login rejected: %s", resp.Message)
	}

	c.accessToken = resp.Data.AccessToken
	c.refreshToken = resp.Data.RefreshToken
	c.feedToken = resp.Data.FeedToken
	c.log.Info("broker session opened", "client", c.cfg.ClientCode)
	return nil
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	body := map[string]string{"refreshToken": c.refreshToken}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, routeRefresh, body, &resp); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if !resp.Status {
		return fmt.Errorf("refresh rejected: %s", resp.Message)
	}
	c.accessToken = resp.Data.AccessToken
	if resp.Data.RefreshToken != "" {
		c.refreshToken = resp.Data.RefreshToken
	}
	return nil
}

// Logout terminates the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	body := map[string]string{"clientcode": c.cfg.ClientCode}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, routeLogout, body, &resp); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.accessToken, c.refreshToken, c.feedToken = "", "", ""
	return nil
}

// candleResponse carries rows of [epoch_seconds, o, h, l, c, volume].
type candleResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    [][]json.Number `json:"data"`
}

// GetCandleData fetches historical bars for one symbol and interval.
// Timestamps are converted to exchange-local; previous-day columns are
// left for the caller's enrichment pass.
func (c *Client) GetCandleData(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	body := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"fromdate": from.UTC().Format(time.RFC3339),
		"todate":   to.UTC().Format(time.RFC3339),
	}
	var resp candleResponse
	if err := c.do(ctx, http.MethodPost, routeCandles, body, &resp); err != nil {
		return nil, fmt.Errorf("candle data: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("candle data rejected: %s", resp.Message)
	}

	bars := make([]model.Bar, 0, len(resp.Data))
	for i, row := range resp.Data {
		bar, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: %w", i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseCandleRow(row []json.Number) (model.Bar, error) {
	if len(row) != 6 {
		return model.Bar{}, fmt.Errorf("got %d fields, want 6", len(row))
	}
	epoch, err := row[0].Int64()
	if err != nil {
		return model.Bar{}, fmt.Errorf("timestamp: %w", err)
	}
	var prices [4]float64
	for i := 0; i < 4; i++ {
		prices[i], err = row[i+1].Float64()
		if err != nil {
			return model.Bar{}, fmt.Errorf("price field %d: %w", i+1, err)
		}
	}
	vol, err := row[5].Int64()
	if err != nil {
		return model.Bar{}, fmt.Errorf("volume: %w", err)
	}
	ts := time.Unix(epoch, 0).In(markethours.NY)
	return model.NewBar(ts, prices[0], prices[1], prices[2], prices[3], vol), nil
}

// do sends one JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, route string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+route, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.SessionExpiryHook != nil {
			c.SessionExpiryHook()
		}
		return fmt.Errorf("session expired (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
}
