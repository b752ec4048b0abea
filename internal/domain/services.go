package domain

import (
	"context"
	"time"
)

// Scraper fetches LinkedIn profile fields for a profile URL. A hard failure
// (auth missing, navigation error, timeout) returns a ScrapeError; a blocked
// or partially readable page returns a fallback profile and no error.
type Scraper interface {
	Scrape(ctx context.Context, profileURL string) (*Profile, error)
}

// Generator produces personalized email text for a profile. Generate may
// fail with a GenerationError; Fallback always succeeds with template text.
type Generator interface {
	Generate(ctx context.Context, profile *Profile, contact Contact) (*GeneratedEmail, error)
	Fallback(profile *Profile, firstName string) *GeneratedEmail
}

// Dispatcher sends a single email through the outbound email API.
type Dispatcher interface {
	Send(ctx context.Context, msg EmailMessage) (*DispatchResult, error)
}

// ProfileCache stores scraped profiles keyed by profile URL.
type ProfileCache interface {
	GetProfile(ctx context.Context, profileURL string, maxAge time.Duration) (*Profile, error)
	PutProfile(ctx context.Context, profileURL string, p *Profile) error
}

// Notifier delivers an out-of-band status message (campaign summaries).
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
