package auth

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
	tasks "google.golang.org/api/tasks/v1"

	"todocli/internal/config"
)

// Provider describes an identity provider and the scopes a backend needs.
type Provider struct {
	Name     string
	Endpoint oauth2.Endpoint
	Scopes   []string

	// AuthOptions are appended to every authorization URL.
	AuthOptions []oauth2.AuthCodeOption
}

// selectAccount forces the provider's account chooser.
var selectAccount = oauth2.SetAuthURLParam("prompt", "select_account")

// Microsoft returns the Microsoft identity platform provider for tenant.
// offline_access is required for a refresh token to be issued.
func Microsoft(tenant string) Provider {
	if tenant == "" {
		tenant = config.DefaultTenant
	}
	return Provider{
		Name:        config.ProviderMicrosoft,
		Endpoint:    microsoft.AzureADEndpoint(tenant),
		Scopes:      []string{"Tasks.ReadWrite", "offline_access"},
		AuthOptions: []oauth2.AuthCodeOption{selectAccount},
	}
}

// Google returns the Google provider with the Tasks scope.
func Google() Provider {
	return Provider{
		Name:        config.ProviderGoogle,
		Endpoint:    google.Endpoint,
		Scopes:      []string{tasks.TasksScope},
		AuthOptions: []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, selectAccount},
	}
}

// ProviderFor returns the provider configured in cfg.
func ProviderFor(cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderMicrosoft, "":
		return Microsoft(cfg.Tenant), nil
	case config.ProviderGoogle:
		return Google(), nil
	default:
		return Provider{}, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// OAuthConfig builds the OAuth2 client configuration for p.
// The Google provider prefers oauth_client.json in the config directory;
// otherwise CLIENT_ID and CLIENT_SECRET are required.
func OAuthConfig(cfg *config.Config, p Provider) (*oauth2.Config, error) {
	if p.Name == config.ProviderGoogle && cfg.HasOAuthClient() {
		clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrAuth, config.OAuthClientFile, err)
		}
		conf, err := google.ConfigFromJSON(clientJSON, p.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s: %v", ErrAuth, config.OAuthClientFile, err)
		}
		return conf, nil
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrAuth, config.EnvClientID)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     p.Endpoint,
		Scopes:       p.Scopes,
	}, nil
}
