package auth

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newExchangeServer serves the authorization_code grant for code "abc".
func newExchangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" ||
			r.PostForm.Get("code") != "abc" ||
			r.PostForm.Get("code_verifier") == "" ||
			r.PostForm.Get("redirect_uri") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"granted","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// redirectTo simulates the browser: it follows the authorization URL's
// redirect_uri with the given query values, copying state unless overridden.
func redirectTo(t *testing.T, authURL string, params url.Values, body *string) error {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()

	if _, ok := params["state"]; !ok {
		params.Set("state", q.Get("state"))
	}
	resp, err := http.Get(q.Get("redirect_uri") + "?" + params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if body != nil {
		*body = string(data)
	}
	return nil
}

func newTestFlow(t *testing.T, tokenURL string, open func(string) error) (*Flow, *FileStore, *bytes.Buffer) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	var out bytes.Buffer
	return &Flow{
		Config:      testOAuthConfig(tokenURL),
		Store:       store,
		Port:        0,
		Timeout:     5 * time.Second,
		AuthOptions: []oauth2.AuthCodeOption{selectAccount},
		OpenBrowser: open,
		Out:         &out,
	}, store, &out
}

func TestFlow_Authorize(t *testing.T) {
	srv := newExchangeServer(t)

	var authURL, page string
	flow, store, out := newTestFlow(t, srv.URL, func(u string) error {
		authURL = u
		return redirectTo(t, u, url.Values{"code": {"abc"}}, &page)
	})

	token, err := flow.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted", token.AccessToken)
	assert.Equal(t, SuccessMessage, page)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("state"))
	assert.Contains(t, q.Get("redirect_uri"), "http://localhost:")
	assert.Contains(t, out.String(), "Open this URL in your browser:")
	assert.Contains(t, out.String(), authURL)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "granted", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken)
}

func TestFlow_DoesNotMutateConfig(t *testing.T) {
	srv := newExchangeServer(t)
	flow, _, _ := newTestFlow(t, srv.URL, func(u string) error {
		return redirectTo(t, u, url.Values{"code": {"abc"}}, nil)
	})

	_, err := flow.Authorize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flow.Config.RedirectURL)
}

func TestFlow_CallbackErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		wantErr string
	}{
		{"state mismatch", url.Values{"code": {"abc"}, "state": {"forged"}}, "state mismatch"},
		{"missing code", url.Values{}, "no code in callback"},
		{"provider error", url.Values{"error": {"access_denied"}, "error_description": {"user declined"}}, "access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newExchangeServer(t)
			flow, store, _ := newTestFlow(t, srv.URL, func(u string) error {
				return redirectTo(t, u, tt.params, nil)
			})

			_, err := flow.Authorize(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuth)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, err = store.Load()
			assert.ErrorIs(t, err, ErrNoToken)
		})
	}
}

func TestFlow_ExchangeFailure(t *testing.T) {
	srv := newExchangeServer(t)
	flow, _, _ := newTestFlow(t, srv.URL, func(u string) error {
		return redirectTo(t, u, url.Values{"code": {"wrong"}}, nil)
	})

	_, err := flow.Authorize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "failed to exchange code for token")
}

func TestFlow_Timeout(t *testing.T) {
	flow, _, _ := newTestFlow(t, "http://127.0.0.1:1/token", nil)
	flow.Timeout = 50 * time.Millisecond

	_, err := flow.Authorize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "timed out")
}

func TestFlow_Cancelled(t *testing.T) {
	flow, _, _ := newTestFlow(t, "http://127.0.0.1:1/token", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flow.Authorize(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestFlow_PortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer busy.Close()

	flow, _, _ := newTestFlow(t, "http://127.0.0.1:1/token", nil)
	flow.Port = busy.Addr().(*net.TCPAddr).Port

	_, err = flow.Authorize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "could not bind")
}

func TestCallback_IgnoresOtherPaths(t *testing.T) {
	cb := newCallback("s")
	rec := httptest.NewRecorder()
	cb.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	select {
	case r := <-cb.result:
		t.Fatalf("unexpected callback result: %+v", r)
	default:
	}
}

func TestCallback_FirstResultWins(t *testing.T) {
	cb := newCallback("s")
	cb.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=s&code=first", nil))
	cb.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=s&code=second", nil))

	code, err := cb.wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}
