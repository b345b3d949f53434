package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"

	"todocli/internal/config"
	"todocli/internal/logging"
)

// Manager decides between the cached token, a refresh and a full login.
type Manager struct {
	conf   *oauth2.Config
	store  Store
	flow   Authorizer
	logger *slog.Logger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(conf *oauth2.Config, store Store, flow Authorizer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		conf:   conf,
		store:  store,
		flow:   flow,
		logger: logger,
	}
}

// NewFromConfig wires the provider, token file and interactive flow
// described by cfg. The authorization URL is printed to out.
func NewFromConfig(cfg *config.Config, out io.Writer) (*Manager, error) {
	p, err := ProviderFor(cfg)
	if err != nil {
		return nil, err
	}
	conf, err := OAuthConfig(cfg, p)
	if err != nil {
		return nil, err
	}

	store := NewFileStore(cfg.TokenPath())
	flow := &Flow{
		Config:      conf,
		Store:       store,
		Port:        cfg.Port,
		Timeout:     cfg.LoginTimeout,
		AuthOptions: p.AuthOptions,
		OpenBrowser: OpenBrowser,
		Out:         out,
		Logger:      cfg.Log(),
	}
	logger := cfg.Log().With(logging.Provider(p.Name))
	return NewManager(conf, store, flow, logger), nil
}

// AccessToken returns an access token for API calls.
//
// A stored refresh token is exchanged once. When there is no stored token,
// no refresh token, or the refresh does not produce an access token, the
// interactive flow runs exactly once.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if token, err := m.Cached(ctx); err == nil {
		return token, nil
	}
	return m.Login(ctx)
}

// Cached returns an access token without user interaction by refreshing the
// stored token. It fails when there is nothing to refresh or the refresh is
// rejected.
func (m *Manager) Cached(ctx context.Context) (string, error) {
	logger := logging.WithOperation(m.logger, "auth.refresh")

	cached, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			logger.Debug("no cached token")
		} else {
			logger.Warn("ignoring unreadable token file", logging.Err(err))
		}
		return "", err
	}
	if cached.RefreshToken == "" {
		logger.Debug("cached token has no refresh token")
		return "", ErrNotRefreshable
	}

	logger.Info("attempting to refresh access token")
	token, err := m.refresh(ctx, cached.RefreshToken)
	if err != nil {
		logger.Info("refresh failed, re-authentication required", logging.Err(err))
		return "", err
	}
	if err := m.store.Save(token); err != nil {
		logger.Warn("failed to save refreshed token", logging.Err(err))
	}
	logger.Debug("token refreshed",
		logging.Status(logging.StatusSuccess),
		slog.String("token", logging.SanitizeToken(token.AccessToken)))
	return token.AccessToken, nil
}

// Login runs the interactive flow unconditionally.
func (m *Manager) Login(ctx context.Context) (string, error) {
	token, err := m.flow.Authorize(ctx)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if token == nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: token response has no access_token", ErrAuth)
	}
	return token.AccessToken, nil
}

// refresh makes a single refresh-token exchange.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	// No access token means the source treats it as expired and refreshes.
	ts := m.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("refresh response has no access_token")
	}
	return token, nil
}
