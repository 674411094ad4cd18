package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type route struct {
	name     string
	provider Provider
	models   map[TaskType]string
}

// Router selects a provider and model for each request, falling back through
// the registered providers in order.
type Router struct {
	mu     sync.RWMutex
	routes []route
	budget BudgetChecker
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBudget enforces per-learner token budgets.
func WithBudget(b BudgetChecker) RouterOption {
	return func(r *Router) {
		r.budget = b
	}
}

// NewRouter creates a new AI router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a provider to the fallback chain. taskModels picks the
// model per task for this provider; tasks not listed use the provider default.
func (r *Router) Register(name string, provider Provider, taskModels map[TaskType]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	models := make(map[TaskType]string, len(taskModels))
	for t, m := range taskModels {
		models[t] = m
	}
	r.routes = append(r.routes, route{name: name, provider: provider, models: models})
}

// Complete routes a request to the first provider that succeeds.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	routes := make([]route, len(r.routes))
	copy(routes, r.routes)
	budget := r.budget
	r.mu.RUnlock()

	if len(routes) == 0 {
		return CompletionResponse{}, ErrNoProviders
	}

	if budget != nil && req.UserID != "" {
		ok, err := budget.Check(ctx, req.UserID)
		if err != nil {
			slog.Warn("budget check failed, allowing request", "user_id", req.UserID, "error", err)
		} else if !ok {
			return CompletionResponse{}, ErrBudgetExceeded
		}
	}

	var errs []error
	for _, rt := range routes {
		routed := req
		if req.Model == "" {
			routed.Model = rt.models[req.Task]
		}

		resp, err := rt.provider.Complete(ctx, routed)
		if err != nil {
			if ctx.Err() != nil {
				return CompletionResponse{}, fmt.Errorf("%s: %w", rt.name, ctx.Err())
			}
			slog.Warn("AI provider failed, trying next",
				"provider", rt.name,
				"task", req.Task.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", rt.name, err))
			continue
		}
		resp.Provider = rt.name

		slog.Debug("AI request completed",
			"provider", rt.name,
			"task", req.Task.String(),
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)

		if budget != nil && req.UserID != "" {
			if err := budget.Record(ctx, req.UserID, resp.TotalTokens()); err != nil {
				slog.Warn("failed to record token usage", "user_id", req.UserID, "error", err)
			}
		}
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes) > 0
}

// Providers returns the registered provider names in fallback order.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.routes))
	for i, rt := range r.routes {
		names[i] = rt.name
	}
	return names
}

// HealthCheck succeeds when at least one provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	routes := make([]route, len(r.routes))
	copy(routes, r.routes)
	r.mu.RUnlock()

	if len(routes) == 0 {
		return ErrNoProviders
	}
	var errs []error
	for _, rt := range routes {
		err := rt.provider.HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", rt.name, err))
	}
	return errors.Join(errs...)
}
