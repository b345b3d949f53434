package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"todocli/internal/logging"
)

const (
	// DefaultCallbackTimeout bounds the wait for the browser redirect.
	DefaultCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Callback server shutdown timeout
	shutdownTimeout = 5 * time.Second

	// SuccessMessage is the body served to the browser after a successful redirect.
	SuccessMessage = "Authorization successful! You can close this tab."
)

// Authorizer obtains a new token through user interaction.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Flow runs the OAuth2 authorization-code flow with a loopback redirect.
type Flow struct {
	// Config holds client credentials and endpoints. RedirectURL is set per run.
	Config *oauth2.Config

	// Store receives the exchanged token.
	Store Store

	// Port is the local listener port. 0 picks a free port.
	Port int

	// Timeout bounds the wait for the redirect. Zero means DefaultCallbackTimeout.
	Timeout time.Duration

	// AuthOptions are added to the authorization URL.
	AuthOptions []oauth2.AuthCodeOption

	// OpenBrowser launches the authorization URL. Nil only prints it.
	OpenBrowser func(url string) error

	// Out receives the authorization URL for manual use.
	Out io.Writer

	Logger *slog.Logger
}

// Authorize blocks until the user completes the browser flow, the timeout
// elapses or ctx is cancelled. The obtained token is saved to the Store.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	logger := f.logger()

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", f.Port))
	if err != nil {
		return nil, fmt.Errorf("%w: could not bind to local port %d for OAuth callback: %v", ErrAuth, f.Port, err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	conf := *f.Config
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, f.AuthOptions...)
	authURL := conf.AuthCodeURL(state, opts...)

	cb := newCallback(state)
	server := &http.Server{
		Handler:           cb,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cb.deliver(callbackResult{err: err})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if f.Out != nil {
		fmt.Fprintln(f.Out, "Open this URL in your browser:")
		fmt.Fprintln(f.Out, authURL)
	}
	if f.OpenBrowser != nil {
		if err := f.OpenBrowser(authURL); err != nil {
			logger.Warn("could not open browser", logging.Err(err))
		}
	}

	logger.Debug("waiting for authorization callback", slog.String("redirect_url", conf.RedirectURL))
	code, err := cb.wait(ctx, f.timeout())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	token, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange code for token: %v", ErrAuth, err)
	}

	if err := f.Store.Save(token); err != nil {
		return nil, fmt.Errorf("%w: failed to save token: %v", ErrAuth, err)
	}
	logger.Debug("authorization complete", logging.Status(logging.StatusSuccess))
	return token, nil
}

func (f *Flow) timeout() time.Duration {
	if f.Timeout <= 0 {
		return DefaultCallbackTimeout
	}
	return f.Timeout
}

func (f *Flow) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logging.WithOperation(f.Logger, "auth.authorize")
}

type callbackResult struct {
	code string
	err  error
}

// callback serves the redirect and hands the first result to the waiter.
type callback struct {
	state  string
	once   sync.Once
	result chan callbackResult
}

func newCallback(state string) *callback {
	return &callback{
		state:  state,
		result: make(chan callbackResult, 1),
	}
}

// deliver records the first result; later ones are dropped.
func (c *callback) deliver(r callbackResult) {
	c.once.Do(func() {
		c.result <- r
	})
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	if e := query.Get("error"); e != "" {
		http.Error(w, "Authorization failed.", http.StatusBadRequest)
		c.deliver(callbackResult{err: fmt.Errorf("provider returned %s: %s", e, query.Get("error_description"))})
		return
	}
	if query.Get("state") != c.state {
		http.Error(w, "State mismatch.", http.StatusBadRequest)
		c.deliver(callbackResult{err: errors.New("state mismatch in callback")})
		return
	}
	code := query.Get("code")
	if code == "" {
		http.Error(w, "No code in callback.", http.StatusBadRequest)
		c.deliver(callbackResult{err: errors.New("no code in callback")})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, SuccessMessage)
	c.deliver(callbackResult{code: code})
}

func (c *callback) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-c.result:
		return r.code, r.err
	case <-timer.C:
		return "", fmt.Errorf("oauth callback timed out after %s", timeout)
	case <-ctx.Done():
		return "", fmt.Errorf("cancelled: %w", ctx.Err())
	}
}
