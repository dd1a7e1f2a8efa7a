package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Router selects the first available provider from an ordered fallback chain.
type Router struct {
	providers map[string]Provider
	fallback  []string
	mu        sync.RWMutex
}

// NewRouter creates a new provider router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the router. Registration order is fallback order.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	r.fallback = append(r.fallback, name)
}

// Complete routes a request to the first provider that succeeds. When every
// provider fails, the last provider's error is returned wrapped so callers
// can classify it.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lastErr error
	for _, name := range r.fallback {
		provider := r.providers[name]

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("scoring provider failed, trying next",
				"provider", name,
				"error", err,
			)
			lastErr = err
			continue
		}

		slog.Debug("scoring request completed",
			"provider", name,
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	if lastErr != nil {
		return CompletionResponse{}, fmt.Errorf("all scoring providers failed: %w", lastErr)
	}
	return CompletionResponse{}, fmt.Errorf("no scoring providers registered")
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}
