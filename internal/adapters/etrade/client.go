package etrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL      = "https://api.etrade.com"
	defaultOAuthBaseURL = "https://api.etrade.com" // también en sandbox
	defaultAuthorizeURL = "https://us.etrade.com/e/t/etws/authorize"

	// Market API: E*TRADE documenta ~4 req/s por consumer key; usamos la mitad.
	marketRatePerSec = 2
	marketBurst      = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Credentials es el par consumer key / secret de la aplicación.
type Credentials struct {
	Key    string
	Secret string
}

// Token es un token OAuth 1.0a (request o access) con su secret.
type Token struct {
	Token  string
	Secret string
}

// IsZero devuelve true si el token no está definido.
func (t Token) IsZero() bool {
	return t.Token == ""
}

// Client es el HTTP client de E*TRADE con firma OAuth, rate limiting y retries.
type Client struct {
	http         *http.Client
	baseURL      string // market API (/v1/market/...)
	oauthBaseURL string // /oauth/...
	authorizeURL string
	consumer     Credentials
	limiter      *rate.Limiter

	mu    sync.RWMutex
	token Token // access token; vacío hasta completar el flujo OAuth

	now   func() time.Time
	nonce func() string
}

// NewClient crea un Client. baseURL sirve el market API y oauthBaseURL los
// endpoints de tokens: en sandbox el market va a apisb pero los tokens siguen
// en producción. Los vacíos usan producción.
func NewClient(baseURL, oauthBaseURL, authorizeURL string, consumer Credentials) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if oauthBaseURL == "" {
		oauthBaseURL = defaultOAuthBaseURL
	}
	if authorizeURL == "" {
		authorizeURL = defaultAuthorizeURL
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		oauthBaseURL: strings.TrimRight(oauthBaseURL, "/"),
		authorizeURL: authorizeURL,
		consumer:     consumer,
		limiter:      rate.NewLimiter(marketRatePerSec, marketBurst),
		now:          time.Now,
		nonce:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// SetToken instala el access token con el que se firman las llamadas al market API.
func (c *Client) SetToken(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

func (c *Client) accessToken() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// get hace un GET firmado con el access token, con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token := c.accessToken()
	if token.IsZero() {
		return fmt.Errorf("GET %s: not authenticated", path)
	}

	endpoint := c.baseURL + path
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		u := endpoint
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("consumerkey", c.consumer.Key)
		req.Header.Set("Authorization", c.authHeader(http.MethodGet, endpoint, query, token, nil))
		return c.http.Do(req)
	}, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// doWithRetry ejecuta la función con backoff exponencial.
// 429 y 5xx se reintentan; el resto de 4xx se devuelve con el mensaje de la API.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), decode func(io.Reader) error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, apiErrorMessage(body))
		}

		defer resp.Body.Close()
		return decode(resp.Body)
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// apiErrorMessage extrae Error.message del body si la API lo devuelve en JSON.
func apiErrorMessage(body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return fmt.Sprintf("%s (code %d)", e.Error.Message, e.Error.Code)
	}
	return strings.TrimSpace(string(body))
}
