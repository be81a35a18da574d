package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/paritybot/internal/adapters/etrade"
	"github.com/alejandrodnm/paritybot/internal/adapters/storage"
)

// tokenCache es la parte del storage que usa el flujo OAuth.
type tokenCache interface {
	LoadToken(ctx context.Context, consumerKey string) (storage.Token, bool, error)
	SaveToken(ctx context.Context, consumerKey string, tok storage.Token) error
}

// oauthClient es la parte del client E*TRADE que usa el flujo OAuth.
type oauthClient interface {
	SetToken(t etrade.Token)
	RequestToken(ctx context.Context) (etrade.Token, error)
	AuthorizeURL(requestToken etrade.Token) string
	AccessToken(ctx context.Context, requestToken etrade.Token, verifier string) (etrade.Token, error)
}

// authenticate instala un access token en el client: el cacheado de hoy si
// existe, si no ejecuta el flujo OAuth pidiendo el código al usuario.
func authenticate(ctx context.Context, client oauthClient, cache tokenCache, consumerKey string, in io.Reader, out io.Writer) error {
	if consumerKey == "" {
		return fmt.Errorf("missing consumer key (set ETRADE_CONSUMER_KEY)")
	}

	cached, ok, err := cache.LoadToken(ctx, consumerKey)
	if err != nil {
		slog.Warn("token cache unavailable", "err", err)
	}
	if ok {
		slog.Debug("using cached access token", "issued_at", cached.IssuedAt)
		client.SetToken(etrade.Token{Token: cached.Token, Secret: cached.Secret})
		return nil
	}

	reqToken, err := client.RequestToken(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	fmt.Fprintf(out, "Authorize the application at:\n  %s\nThen paste the verification code: ", client.AuthorizeURL(reqToken))
	verifier, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && verifier == "" {
		return fmt.Errorf("authenticate: read verifier: %w", err)
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return fmt.Errorf("authenticate: empty verification code")
	}

	acc, err := client.AccessToken(ctx, reqToken, verifier)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	if err := cache.SaveToken(ctx, consumerKey, storage.Token{Token: acc.Token, Secret: acc.Secret}); err != nil {
		slog.Warn("failed to cache access token", "err", err)
	}
	return nil
}
