package domain

import "time"

// Contact is one row of an outreach contact list (CSV import).
type Contact struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Company     string
	Title       string
	Industry    string
	AWSUsage    string
	LinkedInURL string
}

// FullName returns "First Last" with empty parts dropped.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Experience is a single position entry on a profile.
type Experience struct {
	Title       string `json:"position_title"`
	Institution string `json:"institution_name"`
	Duration    string `json:"duration,omitempty"`
}

// Profile holds the fields scraped from a LinkedIn profile. Fallback is set
// when the profile was synthesized from the URL because scraping was blocked.
type Profile struct {
	Name        string       `json:"name"`
	Company     string       `json:"company"`
	JobTitle    string       `json:"job_title"`
	About       string       `json:"about,omitempty"`
	Location    string       `json:"location,omitempty"`
	RecentPosts []string     `json:"recent_posts,omitempty"`
	Experiences []Experience `json:"experiences,omitempty"`
	Fallback    bool         `json:"fallback,omitempty"`
}

// FirstName returns the first word of the profile name, or "" when unknown.
func (p *Profile) FirstName() string {
	if p == nil || p.Name == "" {
		return ""
	}
	for i := 0; i < len(p.Name); i++ {
		if p.Name[i] == ' ' {
			return p.Name[:i]
		}
	}
	return p.Name
}

// EmailMessage is a single outbound email. Delay is waited locally before
// the dispatch request is issued; ScheduleIn is forwarded to the remote API
// as the campaign's scheduled send time.
type EmailMessage struct {
	To         string
	FirstName  string
	LastName   string
	Subject    string
	Body       string
	Title      string // campaign title shown in the CCAI dashboard
	Delay      time.Duration
	ScheduleIn time.Duration
}

// SMSMessage is a single outbound SMS campaign.
type SMSMessage struct {
	To        string // phone number
	FirstName string
	LastName  string
	Message   string
	Title     string
}

// DispatchResult carries the remote API's verdict verbatim.
type DispatchResult struct {
	StatusCode  int
	Response    map[string]any
	ScheduledAt time.Time
}

// GeneratedEmail is the output of the content generator. Fallback marks
// template-generated text used when the model was unavailable.
type GeneratedEmail struct {
	Subject  string
	Body     string
	Fallback bool
}
