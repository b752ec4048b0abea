package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"outreach/internal/domain"
)

func TestBlocked(t *testing.T) {
	cases := []struct {
		url, title string
		want       bool
	}{
		{"https://www.linkedin.com/in/jane-doe/", "Jane Doe | LinkedIn", false},
		{"https://www.linkedin.com/authwall?trk=x", "LinkedIn", true},
		{"https://www.linkedin.com/login", "Sign In", true},
		{"https://www.linkedin.com/checkpoint/challenge/abc", "Security check", true},
		{"https://www.linkedin.com/in/jane-doe/", "This page isn't working", true},
	}
	for _, tc := range cases {
		if got := Blocked(tc.url, tc.title); got != tc.want {
			t.Errorf("Blocked(%q, %q) = %v, want %v", tc.url, tc.title, got, tc.want)
		}
	}
}

func TestCompanyFromHeadline(t *testing.T) {
	cases := map[string]string{
		"CTO at Acme Corp":              "Acme Corp",
		"Engineer @ Initech":            "Initech",
		"Head of Platform at Acme at Scale": "Scale",
		"Freelance consultant":          "Company not found",
	}
	for in, want := range cases {
		if got := CompanyFromHeadline(in); got != want {
			t.Errorf("CompanyFromHeadline(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 250); got != "short" {
		t.Errorf("truncateRunes(short) = %q", got)
	}

	long := strings.Repeat("日", 300)
	got := truncateRunes(long, 250)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is invalid utf-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 250 {
		t.Errorf("rune count = %d, want 250", n)
	}
}

func TestScrape_NoCredentials(t *testing.T) {
	s := New(Config{Headless: true})
	_, err := s.Scrape(context.Background(), "https://www.linkedin.com/in/jane-doe/")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	var scrapeErr *domain.ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected *domain.ScrapeError, got %T: %v", err, err)
	}
}
