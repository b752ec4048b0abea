package domain

import (
	"fmt"
	"strings"
)

// ConfigError reports required configuration keys that are absent. It is
// returned before any network call is attempted.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// CredentialsError means no usable AWS credential source was found after
// trying the profile, explicit keys, and the default chain.
type CredentialsError struct {
	Err error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("aws credentials unavailable: %v", e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// DispatchError is a failed email/SMS dispatch: either the request never
// completed, or the remote API answered non-2xx. StatusCode is 0 for
// transport failures.
type DispatchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dispatch failed: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ScrapeError is a hard profile-scrape failure (missing credentials,
// navigation failure, timeout). Soft failures produce a fallback profile
// instead.
type ScrapeError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scrape %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("scrape %s: %s", e.URL, e.Reason)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// GenerationError is a failed model invocation. Reason distinguishes
// access-denied and throttling from other model failures.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const (
	GenerationAccessDenied = "access_denied"
	GenerationThrottled    = "throttled"
	GenerationModelError   = "model_error"
)
