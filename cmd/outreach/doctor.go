package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"outreach/internal/awsauth"
	"outreach/internal/config"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your outreach setup",
		Long: `Verifies that configuration, AWS credentials, Chrome, and the cache
database are correctly set up. Reports pass/fail for each check. No email
is sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Outreach Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. .env file
			path := envPath
			if path == "" {
				path = ".env"
			}
			if _, err := os.Stat(path); err != nil {
				printWarn("Env file", fmt.Sprintf("not found at %s (process environment only)", path))
				warned++
			} else {
				printPass("Env file", path)
				passed++
			}

			// 2. Required configuration
			cfg, err := config.Load(envPath)
			if err != nil {
				printFail("Configuration", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d warnings, %d failed\n", passed, warned, failed)
				return fmt.Errorf("configuration invalid")
			}
			printPass("Configuration", "required keys present")
			passed++

			// 3. Sender identity
			if err := config.ValidateSender(cfg); err != nil {
				printWarn("Sender identity", err.Error())
				warned++
			} else {
				printPass("Sender identity", cfg.Sender.Name+" <"+cfg.Sender.Email+">")
				passed++
			}

			// 4. LinkedIn auth
			if err := config.ValidateLinkedIn(cfg); err != nil {
				printWarn("LinkedIn auth", "no session cookie or username/password (scraping disabled)")
				warned++
			} else if cfg.LinkedIn.SessionCookie != "" {
				printPass("LinkedIn auth", "session cookie")
				passed++
			} else {
				printPass("LinkedIn auth", "username/password")
				passed++
			}

			// 5. AWS credentials
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			_, source, err := awsauth.NewResolver(logger).Resolve(ctx, awsauth.Options{
				Profile:         cfg.AWS.Profile,
				AccessKeyID:     cfg.AWS.AccessKeyID,
				SecretAccessKey: cfg.AWS.SecretAccessKey,
				Region:          cfg.AWS.Region,
			})
			if err != nil {
				printFail("AWS credentials", err.Error())
				failed++
			} else {
				printPass("AWS credentials", fmt.Sprintf("%s (%s)", source, cfg.AWS.Region))
				passed++
			}

			// 6. Chrome binary
			if bin, err := findChrome(); err != nil {
				printWarn("Chrome", "no Chrome/Chromium binary found (scraping disabled)")
				warned++
			} else {
				printPass("Chrome", bin)
				passed++
			}

			// 7. Cache database writable
			if err := checkDatabase(cfg.Cache.DBPath); err != nil {
				printWarn("Cache database", err.Error())
				warned++
			} else {
				printPass("Cache database", cfg.Cache.DBPath)
				passed++
			}

			// 8. CCAI endpoint reachable
			if err := checkEndpoint(ctx, cfg.CCAI.EmailBase()); err != nil {
				printWarn("CCAI endpoint", err.Error())
				warned++
			} else {
				printPass("CCAI endpoint", cfg.CCAI.EmailBase())
				passed++
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running a campaign.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nOutreach should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! Outreach is ready to run.\n")
			}
			return nil
		},
	}
}

var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

func findChrome() (string, error) {
	for _, name := range chromeCandidates {
		if bin, err := exec.LookPath(name); err == nil {
			return bin, nil
		}
	}
	// macOS app bundle path
	macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	if _, err := os.Stat(macPath); err == nil {
		return macPath, nil
	}
	return "", fmt.Errorf("chrome not found")
}

func checkDatabase(dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

// checkEndpoint verifies the API host accepts TCP connections; it never
// issues a request.
func checkEndpoint(ctx context.Context, base string) error {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid endpoint URL %q", base)
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", u.Host, err)
	}
	conn.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
