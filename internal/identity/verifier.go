// Package identity resolves bearer tokens to owner identities. Accounts
// live in an external identity provider; only the subject string crosses
// into this service.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/opiniohq/opinio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier turns a raw bearer token into an owner ID.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type oidcVerifier struct {
	issuerURL string
	audience  string
	log       *zap.Logger

	once     sync.Once
	verifier *oidc.IDTokenVerifier
	initErr  error
}

// init defers the discovery fetch until the first request so the process
// can start while the issuer is unreachable.
func (v *oidcVerifier) init(ctx context.Context) error {
	v.once.Do(func() {
		provider, err := oidc.NewProvider(ctx, v.issuerURL)
		if err != nil {
			v.initErr = err
			return
		}
		cfg := &oidc.Config{SkipClientIDCheck: v.audience == "", ClientID: v.audience}
		v.verifier = provider.Verifier(cfg)
	})
	return v.initErr
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	if err := v.init(ctx); err != nil {
		v.log.Error("oidc discovery failed", zap.String("issuer", v.issuerURL), zap.Error(err))
		return "", ErrUnauthenticated
	}

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", ErrUnauthenticated
	}
	if token.Subject == "" {
		return "", ErrUnauthenticated
	}
	return token.Subject, nil
}

type staticVerifier struct {
	tokens map[string]string
}

func (v *staticVerifier) Verify(_ context.Context, rawToken string) (string, error) {
	owner, ok := v.tokens[rawToken]
	if !ok {
		return "", ErrUnauthenticated
	}
	return owner, nil
}

// NewStatic builds a fixed token table verifier. Entries map token to
// owner ID.
func NewStatic(tokens map[string]string) Verifier {
	return &staticVerifier{tokens: tokens}
}

// parseStaticTokens reads "token=owner,token2=owner2" pairs.
func parseStaticTokens(raw string) map[string]string {
	tokens := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		token, owner, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || owner == "" {
			continue
		}
		tokens[token] = owner
	}
	return tokens
}

func New(cfg config.Config, log *zap.Logger) Verifier {
	if cfg.AuthIssuerURL != "" {
		return &oidcVerifier{
			issuerURL: cfg.AuthIssuerURL,
			audience:  cfg.AuthAudience,
			log:       log.Named("identity"),
		}
	}
	log.Named("identity").Warn("no auth issuer configured, using static token table")
	return NewStatic(parseStaticTokens(cfg.AuthStaticTokens))
}

var Module = fx.Module("identity",
	fx.Provide(New),
)
