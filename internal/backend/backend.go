// Package backend selects the task service implementation for a provider.
package backend

import (
	"context"
	"fmt"

	"todocli/internal/backend/googletasks"
	"todocli/internal/backend/mstodo"
	"todocli/internal/config"
	"todocli/internal/service"
)

// New returns the service for cfg.Provider authenticated with accessToken.
func New(ctx context.Context, cfg *config.Config, accessToken string) (service.Service, error) {
	switch cfg.Provider {
	case config.ProviderMicrosoft, "":
		return mstodo.New(ctx, accessToken, cfg.GraphBaseURL, cfg.Log()), nil
	case config.ProviderGoogle:
		return googletasks.New(ctx, accessToken)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
