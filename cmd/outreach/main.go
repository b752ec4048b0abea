package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"outreach/internal/awsauth"
	"outreach/internal/campaign"
	"outreach/internal/ccai"
	"outreach/internal/config"
	"outreach/internal/domain"
	"outreach/internal/generator"
	"outreach/internal/notify"
	"outreach/internal/scraper"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/spf13/cobra"

	cachestore "outreach/internal/cache"
)

var (
	version = "0.3.0"
	logger  *slog.Logger
	envPath string // overridable via --env flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "outreach",
		Short: "Outreach: AI-personalized email campaigns",
		Long:  "Outreach scrapes LinkedIn profiles, generates personalized emails with Bedrock, and dispatches them through the CCAI campaigns API.",
	}

	root.PersistentFlags().StringVar(&envPath, "env", "", "path to .env file (default: ./.env)")

	root.AddCommand(sendCmd())
	root.AddCommand(singleCmd())
	root.AddCommand(campaignCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(testCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	return config.Load(envPath)
}

func buildDispatcher(cfg *config.Config) *ccai.Client {
	return ccai.NewClient(ccai.ClientConfig{
		APIKey:      cfg.CCAI.APIKey,
		ClientID:    cfg.CCAI.ClientID,
		AccountID:   cfg.CCAI.AccountID,
		BaseURL:     cfg.CCAI.EmailBase(),
		SenderEmail: cfg.Sender.Email,
		SenderName:  cfg.Sender.Name,
		Logger:      logger,
	})
}

func buildGenerator(ctx context.Context, cfg *config.Config) (*generator.Generator, error) {
	awsCfg, source, err := awsauth.NewResolver(logger).Resolve(ctx, awsauth.Options{
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Region:          cfg.AWS.Region,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("aws credentials resolved", "source", source, "region", cfg.AWS.Region)

	templates, err := config.LoadTemplates(cfg.Model.TemplateFile, cfg.Sender.Company)
	if err != nil {
		return nil, err
	}

	return generator.New(generator.Config{
		Invoker:     bedrockruntime.NewFromConfig(awsCfg),
		ModelID:     cfg.Model.ID,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		Sender:      cfg.Sender,
		Templates:   templates,
		Logger:      logger,
	}), nil
}

func buildScraper(cfg *config.Config) *scraper.Scraper {
	return scraper.New(scraper.Config{
		SessionCookie: cfg.LinkedIn.SessionCookie,
		Username:      cfg.LinkedIn.Username,
		Password:      cfg.LinkedIn.Password,
		Headless:      cfg.Browser.Headless,
		ProfileDir:    cfg.Browser.ProfileDir,
		Logger:        logger,
	})
}

func sendCmd() *cobra.Command {
	var scheduleMinutes int

	cmd := &cobra.Command{
		Use:   "send <recipient> <subject> <message> [delay_seconds]",
		Short: "Send one email directly through the CCAI API",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateSender(cfg); err != nil {
				return err
			}

			var delay time.Duration
			if len(args) == 4 {
				secs, err := strconv.Atoi(args[3])
				if err != nil || secs < 0 {
					return fmt.Errorf("delay_seconds %q: must be a non-negative integer", args[3])
				}
				delay = time.Duration(secs) * time.Second
			}

			scheduleIn := cfg.ScheduleLead
			if cmd.Flags().Changed("schedule-minutes") {
				scheduleIn = time.Duration(scheduleMinutes) * time.Minute
			}

			ctx, stop := signalContext()
			defer stop()

			result, err := buildDispatcher(cfg).Send(ctx, domain.EmailMessage{
				To:         args[0],
				Subject:    args[1],
				Body:       args[2],
				Delay:      delay,
				ScheduleIn: scheduleIn,
			})
			if err != nil {
				return err
			}
			logger.Info("email dispatched", "to", args[0], "status", result.StatusCode, "scheduled_at", result.ScheduledAt)
			return nil
		},
	}

	cmd.Flags().IntVar(&scheduleMinutes, "schedule-minutes", 2, "minutes into the future to schedule the campaign")
	return cmd
}

func singleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "single <recipient> <linkedin-url> [schedule_minutes]",
		Short: "Scrape one profile, generate an email, and send it",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateSender(cfg); err != nil {
				return err
			}
			if err := config.ValidateLinkedIn(cfg); err != nil {
				return err
			}

			scheduleIn := cfg.ScheduleLead
			if len(args) == 3 {
				mins, err := strconv.Atoi(args[2])
				if err != nil || mins < 0 {
					return fmt.Errorf("schedule_minutes %q: must be a non-negative integer", args[2])
				}
				scheduleIn = time.Duration(mins) * time.Minute
			}

			ctx, stop := signalContext()
			defer stop()

			gen, err := buildGenerator(ctx, cfg)
			if err != nil {
				return err
			}

			runner, store := buildRunner(cfg, gen, runnerOptions{scheduleIn: scheduleIn})
			if store != nil {
				defer store.Close()
			}

			contact := domain.Contact{Email: args[0], LinkedInURL: args[1]}
			report, err := runner.Run(ctx, []domain.Contact{contact})
			if err != nil {
				return err
			}
			if report.Failed() > 0 {
				return fmt.Errorf("send failed: %s", report.Outcomes[0].Error)
			}
			logger.Info("email dispatched", "to", args[0], "subject", report.Outcomes[0].Subject)
			return nil
		},
	}
}

func campaignCmd() *cobra.Command {
	var (
		csvPath string
		limit   int
		outPath string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run an email campaign over a contact CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateSender(cfg); err != nil {
				return err
			}
			if err := config.ValidateLinkedIn(cfg); err != nil {
				return err
			}

			contacts, skipped, err := campaign.LoadContacts(csvPath)
			if err != nil {
				return err
			}
			if skipped > 0 {
				logger.Warn("skipped contacts without email or linkedin url", "skipped", skipped)
			}
			contacts = campaign.Sample(contacts, limit)
			if len(contacts) == 0 {
				return fmt.Errorf("no usable contacts in %s", csvPath)
			}
			logger.Info("starting campaign", "contacts", len(contacts), "dry_run", dryRun)

			ctx, stop := signalContext()
			defer stop()

			gen, err := buildGenerator(ctx, cfg)
			if err != nil {
				return err
			}

			runner, store := buildRunner(cfg, gen, runnerOptions{
				scheduleIn: cfg.ScheduleLead,
				dryRun:     dryRun,
			})
			if store != nil {
				defer store.Close()
			}

			report, runErr := runner.Run(ctx, contacts)

			if store != nil && len(report.Outcomes) > 0 {
				if _, err := store.RecordRun(context.Background(), runRecord(report)); err != nil {
					logger.Warn("failed to record campaign run", "err", err)
				}
			}
			if outPath != "" {
				if err := report.WriteJSON(outPath); err != nil {
					logger.Warn("failed to write results file", "path", outPath, "err", err)
				} else {
					logger.Info("results written", "path", outPath)
				}
			}

			fmt.Println(report.Summary())
			if runErr != nil {
				return runErr
			}
			if report.Failed() > 0 {
				return fmt.Errorf("%d recipient(s) failed", report.Failed())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "contact CSV file")
	cmd.Flags().IntVar(&limit, "limit", 0, "send to at most N randomly chosen contacts (0 = all)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the full run report as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate emails but do not dispatch")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func previewCmd() *cobra.Command {
	var (
		csvPath string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate emails for a contact CSV without sending anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateLinkedIn(cfg); err != nil {
				return err
			}

			contacts, _, err := campaign.LoadContacts(csvPath)
			if err != nil {
				return err
			}
			contacts = campaign.Sample(contacts, limit)

			ctx, stop := signalContext()
			defer stop()

			// Preview works without Bedrock: an unresolvable model client
			// just means every email comes from the template fallback.
			gen, err := buildGenerator(ctx, cfg)
			if err != nil {
				logger.Warn("model unavailable, previews use the template fallback", "err", err)
				templates, terr := config.LoadTemplates(cfg.Model.TemplateFile, cfg.Sender.Company)
				if terr != nil {
					return terr
				}
				gen = generator.New(generator.Config{
					Sender:    cfg.Sender,
					Templates: templates,
					Logger:    logger,
				})
			}
			scr := buildScraper(cfg)

			for i, contact := range contacts {
				if err := ctx.Err(); err != nil {
					return err
				}

				profile, err := scr.Scrape(ctx, contact.LinkedInURL)
				if err != nil {
					logger.Warn("scrape failed", "url", contact.LinkedInURL, "err", err)
					profile = domain.FallbackProfile(contact.LinkedInURL)
				}

				email, err := gen.Generate(ctx, profile, contact)
				if err != nil {
					logger.Warn("generation failed, using fallback", "email", contact.Email, "err", err)
					email = gen.Fallback(profile, contact.FirstName)
				}

				fmt.Printf("--- %d/%d  %s <%s> ---\n", i+1, len(contacts), contact.FullName(), contact.Email)
				fmt.Printf("Subject: %s\n\n%s\n\n", email.Subject, email.Body)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "contact CSV file")
	cmd.Flags().IntVar(&limit, "limit", 3, "preview at most N contacts")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func testCmd() *cobra.Command {
	var toList string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send plain test emails to a list of addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateSender(cfg); err != nil {
				return err
			}

			var recipients []string
			for _, addr := range strings.Split(toList, ",") {
				if addr = strings.TrimSpace(addr); addr != "" {
					recipients = append(recipients, addr)
				}
			}
			if len(recipients) == 0 {
				return fmt.Errorf("--to must list at least one address")
			}

			ctx, stop := signalContext()
			defer stop()

			dispatcher := buildDispatcher(cfg)
			for i, to := range recipients {
				name := domain.FirstNameFromEmail(to)
				result, err := dispatcher.Send(ctx, domain.EmailMessage{
					To:         to,
					Subject:    "Test Email from " + cfg.Sender.Name,
					Body:       fmt.Sprintf("<p>Hi %s,</p><p>This is a test email from the outreach pipeline. If you received it, delivery is working.</p>", name),
					Title:      "Test Email - " + name,
					ScheduleIn: cfg.ScheduleLead,
				})
				if err != nil {
					return err
				}
				logger.Info("test email dispatched", "to", to, "status", result.StatusCode)

				if i < len(recipients)-1 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(3 * time.Second):
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&toList, "to", "", "comma-separated recipient addresses")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent campaign runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := cachestore.New(cfg.Cache.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no campaign runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %d contacts  %d sent  %d failed  (%s)\n",
					r.StartedAt.Format("2006-01-02 15:04"),
					r.Total, r.Sent, r.Failed,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}

type runnerOptions struct {
	scheduleIn time.Duration
	dryRun     bool
}

// buildRunner wires the full pipeline. The cache store and notifier are
// optional; failures opening the store only disable caching.
func buildRunner(cfg *config.Config, gen *generator.Generator, opts runnerOptions) (*campaign.Runner, *cachestore.Store) {
	var cache domain.ProfileCache
	store, err := cachestore.New(cfg.Cache.DBPath, logger)
	if err != nil {
		logger.Warn("profile cache disabled", "path", cfg.Cache.DBPath, "err", err)
		store = nil
	} else {
		cache = store
	}

	var notifier domain.Notifier
	if tg := notify.NewTelegram(notify.TelegramConfig{
		Token:  cfg.Telegram.BotToken,
		ChatID: cfg.Telegram.ChatID,
		Logger: logger,
	}); tg != nil {
		notifier = tg
	}

	runner := campaign.NewRunner(campaign.RunnerConfig{
		Scraper:    buildScraper(cfg),
		Generator:  gen,
		Dispatcher: buildDispatcher(cfg),
		Cache:      cache,
		Notifier:   notifier,
		CacheTTL:   cfg.Cache.TTL,
		ScheduleIn: opts.scheduleIn,
		DryRun:     opts.dryRun,
		Logger:     logger,
	})
	return runner, store
}

func runRecord(report *campaign.Report) cachestore.RunRecord {
	rec := cachestore.RunRecord{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Total:      len(report.Outcomes),
		Sent:       report.Sent(),
		Failed:     report.Failed(),
	}
	for _, o := range report.Outcomes {
		rec.Recipients = append(rec.Recipients, cachestore.RecipientRecord{
			Email:       o.Contact.Email,
			LinkedInURL: o.Contact.LinkedInURL,
			Stage:       string(o.Stage),
			Error:       o.Error,
		})
	}
	return rec
}
