package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"outreach/internal/domain"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	linkedinHome = "https://www.linkedin.com"
	loginURL     = "https://www.linkedin.com/login"

	defaultScrapeTimeout = 90 * time.Second
	settleDelay          = 5 * time.Second
	activityDelay        = 3 * time.Second
)

// Scraper drives a Chrome session to read LinkedIn profiles. Blocked pages
// (authwall, login redirect, challenge) degrade to a fallback profile;
// navigation failures and timeouts surface as *domain.ScrapeError.
type Scraper struct {
	sessionCookie string
	username      string
	password      string

	headless   bool
	profileDir string
	timeout    time.Duration
	logger     *slog.Logger
}

type Config struct {
	SessionCookie string
	Username      string
	Password      string
	Headless      bool
	ProfileDir    string
	Timeout       time.Duration
	Logger        *slog.Logger
}

func New(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScrapeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scraper{
		sessionCookie: cfg.SessionCookie,
		username:      cfg.Username,
		password:      cfg.Password,
		headless:      cfg.Headless,
		profileDir:    cfg.ProfileDir,
		timeout:       cfg.Timeout,
		logger:        cfg.Logger,
	}
}

// Scrape fetches name, headline, location and the most recent activity post
// for a profile URL.
func (s *Scraper) Scrape(ctx context.Context, profileURL string) (*domain.Profile, error) {
	if s.sessionCookie == "" && (s.username == "" || s.password == "") {
		return nil, &domain.ScrapeError{URL: profileURL, Reason: "no linkedin credentials configured"}
	}

	taskCtx, cancel := s.newBrowserContext(ctx)
	defer cancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, s.timeout)
	defer timeoutCancel()

	if err := s.authenticate(taskCtx); err != nil {
		return nil, &domain.ScrapeError{URL: profileURL, Reason: "authentication", Err: err}
	}

	var currentURL, pageTitle string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(profileURL),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&currentURL),
		chromedp.Title(&pageTitle),
	)
	if err != nil {
		return nil, &domain.ScrapeError{URL: profileURL, Reason: "navigate profile", Err: err}
	}

	if Blocked(currentURL, pageTitle) {
		s.logger.Warn("linkedin access blocked or session expired", "url", profileURL, "at", currentURL)
		return domain.FallbackProfile(profileURL), nil
	}

	name, err := s.extractFirst(taskCtx, nameSelectors, "true")
	if err != nil {
		return nil, &domain.ScrapeError{URL: profileURL, Reason: "extract name", Err: err}
	}
	headline, err := s.extractFirst(taskCtx, headlineSelectors, headlineFilter)
	if err != nil {
		return nil, &domain.ScrapeError{URL: profileURL, Reason: "extract headline", Err: err}
	}
	location, _ := s.extractFirst(taskCtx, locationSelectors, locationFilter)

	if name == "" && headline == "" {
		s.logger.Warn("could not extract profile fields, using fallback", "url", profileURL)
		return domain.FallbackProfile(profileURL), nil
	}

	profile := &domain.Profile{
		Name:     name,
		JobTitle: headline,
		Company:  CompanyFromHeadline(headline),
		Location: location,
	}

	if post := s.recentActivity(taskCtx, profileURL); post != "" {
		profile.RecentPosts = append(profile.RecentPosts, post)
	}

	s.logger.Info("scraped profile", "url", profileURL, "name", name)
	return profile, nil
}

// authenticate injects the li_at session cookie, or logs in with
// username/password when no cookie is configured.
func (s *Scraper) authenticate(ctx context.Context) error {
	if s.sessionCookie != "" {
		return chromedp.Run(ctx,
			chromedp.Navigate(linkedinHome),
			chromedp.ActionFunc(func(ctx context.Context) error {
				return network.SetCookie("li_at", s.sessionCookie).
					WithDomain(".linkedin.com").
					WithPath("/").
					WithSecure(true).
					WithHTTPOnly(true).
					Do(ctx)
			}),
			chromedp.Reload(),
			chromedp.Sleep(2*time.Second),
		)
	}

	return chromedp.Run(ctx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`#username`, chromedp.ByID),
		chromedp.SendKeys(`#username`, s.username, chromedp.ByID),
		chromedp.SendKeys(`#password`, s.password, chromedp.ByID),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
}

// recentActivity fetches the text of the most recent post, best effort.
func (s *Scraper) recentActivity(ctx context.Context, profileURL string) string {
	activityURL := strings.TrimRight(profileURL, "/") + "/recent-activity/all/"

	var post string
	err := chromedp.Run(ctx,
		chromedp.Navigate(activityURL),
		chromedp.Sleep(activityDelay),
		chromedp.Evaluate(firstActivityJS, &post),
	)
	if err != nil {
		s.logger.Debug("recent activity unavailable", "url", activityURL, "err", err)
		return ""
	}
	return strings.TrimSpace(truncateRunes(post, 250))
}

// truncateRunes shortens s to at most n runes, never splitting a multibyte
// sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Selector chains tried in order; LinkedIn's markup varies per account.
var (
	nameSelectors = []string{
		"h1.text-heading-xlarge", "h1.break-words", "h1",
		"[data-generated-suggestion-target]", ".pv-text-details__left-panel h1",
	}
	headlineSelectors = []string{
		".text-body-medium.break-words", ".text-body-medium",
		".pv-text-details__left-panel .text-body-medium",
	}
	locationSelectors = []string{
		".text-body-small.inline.t-black--light.break-words",
		".text-body-small", ".pv-text-details__left-panel .text-body-small",
	}
)

const (
	headlineFilter = "t.length > 5 && !t.toLowerCase().includes('connections')"
	locationFilter = "t.includes(',')"

	firstActivityJS = `(() => {
		const el = document.querySelector('[data-id*="urn:li:activity"] .feed-shared-text');
		return el ? (el.innerText || '').trim() : '';
	})()`
)

// extractFirst returns the first non-empty element text matching any of the
// selectors, with filter applied as a JS predicate over the trimmed text t.
func (s *Scraper) extractFirst(ctx context.Context, selectors []string, filter string) (string, error) {
	sels, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	js := fmt.Sprintf(`(() => {
		const sels = %s;
		for (const sel of sels) {
			for (const el of document.querySelectorAll(sel)) {
				const t = (el.innerText || '').trim();
				if (t && (%s)) { return t; }
			}
		}
		return '';
	})()`, sels, filter)

	var out string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return "", err
	}
	return out, nil
}

// Blocked reports whether the page LinkedIn served is an auth wall, login
// redirect, security challenge, or error page.
func Blocked(currentURL, pageTitle string) bool {
	u := strings.ToLower(currentURL)
	if strings.Contains(u, "/login") || strings.Contains(u, "authwall") || strings.Contains(u, "challenge") {
		return true
	}
	return strings.Contains(strings.ToLower(pageTitle), "this page isn't working")
}

// CompanyFromHeadline extracts the company from a headline like
// "CTO at Acme" or "Engineer @ Initech".
func CompanyFromHeadline(headline string) string {
	for _, sep := range []string{" at ", " @ "} {
		if i := strings.LastIndex(headline, sep); i >= 0 {
			return strings.TrimSpace(headline[i+len(sep):])
		}
	}
	return "Company not found"
}
