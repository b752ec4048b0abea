package campaign

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"outreach/internal/domain"
)

const (
	defaultRecipientTimeout = 5 * time.Minute
	defaultSendInterval     = 3 * time.Second
)

// Runner sequences scrape → generate → dispatch across a contact list,
// strictly one recipient at a time. A failure in any stage marks that
// recipient failed and the run moves on; nothing short of context
// cancellation aborts the batch.
type Runner struct {
	scraper    domain.Scraper
	generator  domain.Generator
	dispatcher domain.Dispatcher
	cache      domain.ProfileCache
	notifier   domain.Notifier

	cacheTTL         time.Duration
	recipientTimeout time.Duration
	sendInterval     time.Duration
	scheduleIn       time.Duration
	dryRun           bool
	logger           *slog.Logger
}

type RunnerConfig struct {
	Scraper    domain.Scraper
	Generator  domain.Generator
	Dispatcher domain.Dispatcher
	Cache      domain.ProfileCache // optional
	Notifier   domain.Notifier     // optional

	CacheTTL         time.Duration
	RecipientTimeout time.Duration
	SendInterval     time.Duration // pause between recipients; negative disables
	ScheduleIn       time.Duration // remote schedule lead per email
	DryRun           bool          // generate but never dispatch
	Logger           *slog.Logger
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.RecipientTimeout <= 0 {
		cfg.RecipientTimeout = defaultRecipientTimeout
	}
	if cfg.SendInterval == 0 {
		cfg.SendInterval = defaultSendInterval
	} else if cfg.SendInterval < 0 {
		cfg.SendInterval = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		scraper:          cfg.Scraper,
		generator:        cfg.Generator,
		dispatcher:       cfg.Dispatcher,
		cache:            cfg.Cache,
		notifier:         cfg.Notifier,
		cacheTTL:         cfg.CacheTTL,
		recipientTimeout: cfg.RecipientTimeout,
		sendInterval:     cfg.SendInterval,
		scheduleIn:       cfg.ScheduleIn,
		dryRun:           cfg.DryRun,
		logger:           cfg.Logger,
	}
}

// Run processes every contact and returns the aggregated report. The only
// error it returns is context cancellation; per-recipient failures live in
// the report.
func (r *Runner) Run(ctx context.Context, contacts []domain.Contact) (*Report, error) {
	report := &Report{StartedAt: time.Now(), DryRun: r.dryRun}

	for i, contact := range contacts {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}

		r.logger.Info("processing recipient",
			"n", i+1, "of", len(contacts), "email", contact.Email, "name", contact.FullName())
		outcome := r.processOne(ctx, contact)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Success() {
			r.logger.Info("recipient done", "email", contact.Email, "subject", outcome.Subject, "degraded", outcome.Degraded)
		} else {
			r.logger.Warn("recipient failed", "email", contact.Email, "stage", outcome.Stage, "err", outcome.Error)
		}

		if r.sendInterval > 0 && i < len(contacts)-1 {
			select {
			case <-ctx.Done():
				report.FinishedAt = time.Now()
				return report, ctx.Err()
			case <-time.After(r.sendInterval):
			}
		}
	}

	report.FinishedAt = time.Now()
	r.notify(ctx, report)
	return report, nil
}

func (r *Runner) processOne(ctx context.Context, contact domain.Contact) Outcome {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.recipientTimeout)
	defer cancel()

	outcome := Outcome{Contact: contact, Stage: StageScrape}

	profile, err := r.lookupProfile(ctx, contact.LinkedInURL)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}
	outcome.Degraded = profile.Fallback

	outcome.Stage = StageGenerate
	email, err := r.generator.Generate(ctx, profile, contact)
	if err != nil {
		var genErr *domain.GenerationError
		if !errors.As(err, &genErr) || ctx.Err() != nil {
			outcome.Error = err.Error()
			outcome.Duration = time.Since(start)
			return outcome
		}
		// Model trouble degrades to the template email rather than losing
		// the recipient.
		r.logger.Warn("generation failed, using fallback email", "email", contact.Email, "err", err)
		firstName := contact.FirstName
		if firstName == "" {
			firstName = profile.FirstName()
		}
		email = r.generator.Fallback(profile, firstName)
		outcome.Degraded = true
	}
	outcome.Subject = email.Subject

	if r.dryRun {
		outcome.Stage = StageDone
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Stage = StageDispatch
	result, err := r.dispatcher.Send(ctx, domain.EmailMessage{
		To:         contact.Email,
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		Subject:    email.Subject,
		Body:       email.Body,
		Title:      "AI Email - " + contact.FullName(),
		ScheduleIn: r.scheduleIn,
	})
	if err != nil {
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Stage = StageDone
	outcome.ScheduledAt = result.ScheduledAt
	outcome.Duration = time.Since(start)
	return outcome
}

// lookupProfile checks the cache, scrapes on a miss, and caches the result.
// Cache failures only log; the scrape result decides the outcome.
func (r *Runner) lookupProfile(ctx context.Context, profileURL string) (*domain.Profile, error) {
	if r.cache != nil {
		cached, err := r.cache.GetProfile(ctx, profileURL, r.cacheTTL)
		if err != nil {
			r.logger.Warn("profile cache read failed", "url", profileURL, "err", err)
		} else if cached != nil {
			r.logger.Debug("profile cache hit", "url", profileURL)
			return cached, nil
		}
	}

	profile, err := r.scraper.Scrape(ctx, profileURL)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.PutProfile(ctx, profileURL, profile); err != nil {
			r.logger.Warn("profile cache write failed", "url", profileURL, "err", err)
		}
	}
	return profile, nil
}

func (r *Runner) notify(ctx context.Context, report *Report) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, report.Summary()); err != nil {
		r.logger.Warn("campaign notification failed", "err", err)
	}
}
