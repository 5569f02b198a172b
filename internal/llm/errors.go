package llm

import (
	"errors"
	"fmt"
)

// ProviderError indicates the LLM provider call itself failed: network error,
// timeout, provider-side 5xx, or an empty/blocked response. Retryable at the
// caller's discretion; never retried automatically.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
