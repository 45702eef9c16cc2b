package generation

import "errors"

var (
	// Provider failures, in decreasing specificity. All three degrade to the
	// canned fallback reply on the generation path.
	ErrProviderQuota       = errors.New("generation: provider quota exhausted")
	ErrProviderRateLimited = errors.New("generation: provider rate limited")
	ErrProviderUnavailable = errors.New("generation: provider unavailable")

	ErrAPIKeyRequired = errors.New("generation: api key is required")
	ErrEmptyReview    = errors.New("generation: review text is required")
)
