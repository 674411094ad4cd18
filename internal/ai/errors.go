package ai

import "errors"

var (
	// ErrNoProviders is returned when no provider is registered.
	ErrNoProviders = errors.New("no AI providers configured")

	// ErrAllProvidersFailed is returned when every provider in the chain failed.
	ErrAllProvidersFailed = errors.New("all AI providers failed")

	// ErrBudgetExceeded is returned when the learner has used up their token budget.
	ErrBudgetExceeded = errors.New("AI token budget exceeded")

	// ErrInvalidOutput indicates the model response could not be parsed
	// into the expected structure.
	ErrInvalidOutput = errors.New("invalid AI output format")
)
