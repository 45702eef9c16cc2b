package billing

import "errors"

var (
	// ErrInvalidSignature is returned when webhook signature verification
	// fails. No state is mutated and the provider must not retry.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrInvalidPayload is returned when a verified webhook body cannot be
	// decoded.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrUnknownPriceRef is returned when a webhook references a price that
	// no catalog plan maps to.
	ErrUnknownPriceRef = errors.New("unknown price reference")
	// ErrPlanNotPurchasable is returned when checkout is requested for a
	// plan without a provider price.
	ErrPlanNotPurchasable = errors.New("plan is not purchasable")
	// ErrNoSubscription is returned when a subscription operation targets a
	// user without a provider subscription on file.
	ErrNoSubscription = errors.New("no subscription on file")
	// ErrNotSupported is returned when the configured provider does not
	// implement an optional capability.
	ErrNotSupported = errors.New("operation not supported by billing provider")
)
