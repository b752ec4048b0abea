package domain

import "strings"

// FallbackProfile synthesizes a Profile from a LinkedIn URL when scraping is
// blocked. The name is reconstructed from the profile slug ("joel-garcia" or
// "joelGarcia" become "Joel Garcia").
func FallbackProfile(profileURL string) *Profile {
	name := nameFromSlug(profileSlug(profileURL))
	if name == "" {
		name = "LinkedIn User"
	}
	return &Profile{
		Name:     name,
		Company:  "Company not available",
		JobTitle: "Professional",
		About:    "LinkedIn profile information not available due to access restrictions.",
		Location: "Location not available",
		Fallback: true,
	}
}

// FirstNameFromEmail derives a display name from the local part of an email
// address: "jane.doe@x.com" becomes "Jane Doe".
func FirstNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.ReplaceAll(local, ".", " ")
	local = strings.ReplaceAll(local, "_", " ")
	return titleWords(local)
}

func profileSlug(profileURL string) string {
	trimmed := strings.TrimRight(profileURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func nameFromSlug(slug string) string {
	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}
	for _, r := range slug {
		switch {
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9' && current.Len() > 0):
			current.WriteRune(r)
		case r == '-' || r == '_':
			flush()
		}
	}
	flush()
	// Trailing numeric disambiguators ("jane-doe-1b2c") are not name parts.
	for len(parts) > 0 && !isAlpha(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return titleWords(strings.Join(parts, " "))
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return len(s) > 0
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}
