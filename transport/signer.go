package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-llm-connections/core"
)

// BearerTokenSigner sets Authorization: Bearer <token>.
type BearerTokenSigner struct {
	Token string
}

func (s BearerTokenSigner) Sign(_ context.Context, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("transport: http request is required")
	}
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return fmt.Errorf("transport: token is required for bearer signing")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// CookieSigner attaches session cookies, e.g. a browser session copied from
// an authenticated backend.
type CookieSigner struct {
	Cookies []*http.Cookie
}

func (s CookieSigner) Sign(_ context.Context, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("transport: http request is required")
	}
	for _, cookie := range s.Cookies {
		if cookie == nil || strings.TrimSpace(cookie.Name) == "" {
			continue
		}
		req.AddCookie(cookie)
	}
	return nil
}

// ParseCookieHeader reads a Cookie header value ("a=1; b=2").
func ParseCookieHeader(header string) []*http.Cookie {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	parsed := &http.Request{Header: http.Header{"Cookie": []string{header}}}
	return parsed.Cookies()
}

type HeaderSigner struct {
	Headers map[string]string
}

func (s HeaderSigner) Sign(_ context.Context, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("transport: http request is required")
	}
	for key, value := range s.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		req.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return nil
}

// SignerChain applies signers in order and stops at the first error.
type SignerChain []core.CredentialSigner

func (c SignerChain) Sign(ctx context.Context, req *http.Request) error {
	for _, signer := range c {
		if signer == nil {
			continue
		}
		if err := signer.Sign(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ core.CredentialSigner = BearerTokenSigner{}
	_ core.CredentialSigner = CookieSigner{}
	_ core.CredentialSigner = HeaderSigner{}
	_ core.CredentialSigner = SignerChain{}
)
