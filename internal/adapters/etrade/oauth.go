package etrade

// oauth.go: flujo OAuth 1.0a de E*TRADE.
//
//   1. RequestToken: token temporal con callback "oob".
//   2. AuthorizeURL: el usuario acepta en el navegador y obtiene un código.
//   3. AccessToken: se canjea token temporal + código por el access token.
//
// Todas las llamadas se firman con HMAC-SHA1 (RFC 5849).

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	requestTokenPath = "/oauth/request_token"
	accessTokenPath  = "/oauth/access_token"
	signatureMethod  = "HMAC-SHA1"
)

// RequestToken obtiene un request token temporal.
func (c *Client) RequestToken(ctx context.Context) (Token, error) {
	t, err := c.tokenRequest(ctx, requestTokenPath, Token{}, map[string]string{"oauth_callback": "oob"})
	if err != nil {
		return Token{}, fmt.Errorf("etrade.RequestToken: %w", err)
	}
	return t, nil
}

// AuthorizeURL devuelve la URL donde el usuario autoriza el request token.
func (c *Client) AuthorizeURL(requestToken Token) string {
	q := url.Values{}
	q.Set("key", c.consumer.Key)
	q.Set("token", requestToken.Token)
	return c.authorizeURL + "?" + q.Encode()
}

// AccessToken canjea el request token y el código de verificación por un access token
// y lo instala en el client.
func (c *Client) AccessToken(ctx context.Context, requestToken Token, verifier string) (Token, error) {
	t, err := c.tokenRequest(ctx, accessTokenPath, requestToken, map[string]string{"oauth_verifier": verifier})
	if err != nil {
		return Token{}, fmt.Errorf("etrade.AccessToken: %w", err)
	}
	c.SetToken(t)
	return t, nil
}

// tokenRequest hace el GET firmado a un endpoint de tokens y parsea la respuesta form-encoded.
func (c *Client) tokenRequest(ctx context.Context, path string, token Token, extra map[string]string) (Token, error) {
	endpoint := c.oauthBaseURL + path
	var out Token
	err := c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.authHeader(http.MethodGet, endpoint, nil, token, extra))
		return c.http.Do(req)
	}, func(body io.Reader) error {
		raw, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return fmt.Errorf("parse token response: %w", err)
		}
		out = Token{Token: values.Get("oauth_token"), Secret: values.Get("oauth_token_secret")}
		if out.IsZero() {
			return fmt.Errorf("token response without oauth_token")
		}
		return nil
	})
	return out, err
}

// authHeader construye la cabecera Authorization OAuth firmada.
func (c *Client) authHeader(method, endpoint string, query url.Values, token Token, extra map[string]string) string {
	oauth := map[string]string{
		"oauth_consumer_key":     c.consumer.Key,
		"oauth_nonce":            c.nonce(),
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        strconv.FormatInt(c.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if !token.IsZero() {
		oauth["oauth_token"] = token.Token
	}
	for k, v := range extra {
		oauth[k] = v
	}

	base := signatureBase(method, endpoint, query, oauth)
	oauth["oauth_signature"] = sign(base, c.consumer.Secret, token.Secret)

	keys := make([]string, 0, len(oauth))
	for k := range oauth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, `realm=""`)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauth[k])))
	}
	return "OAuth " + strings.Join(parts, ",")
}

// signatureBase arma el signature base string: METHOD&url&params normalizados.
func signatureBase(method, endpoint string, query url.Values, oauth map[string]string) string {
	type kv struct{ k, v string }
	params := make([]kv, 0, len(oauth)+len(query))
	for k, v := range oauth {
		params = append(params, kv{percentEncode(k), percentEncode(v)})
	}
	for k, vs := range query {
		for _, v := range vs {
			params = append(params, kv{percentEncode(k), percentEncode(v)})
		}
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].k != params[j].k {
			return params[i].k < params[j].k
		}
		return params[i].v < params[j].v
	})

	pairs := make([]string, len(params))
	for i, p := range params {
		pairs[i] = p.k + "=" + p.v
	}

	return strings.ToUpper(method) + "&" + percentEncode(endpoint) + "&" + percentEncode(strings.Join(pairs, "&"))
}

// sign firma el base string con HMAC-SHA1 usando consumerSecret&tokenSecret.
func sign(base, consumerSecret, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode codifica según RFC 3986 (espacio como %20, '~' sin codificar).
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
