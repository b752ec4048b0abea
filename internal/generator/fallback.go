package generator

import (
	"strings"
	"text/template"
	"unicode/utf8"

	"outreach/internal/domain"
)

// fallbackTmpl is the template email used when the model is unavailable.
var fallbackTmpl = template.Must(template.New("fallback").Parse(`<p>Hi {{.FirstName}},</p>

{{if .RecentPost}}<p>I saw your recent LinkedIn post about {{.RecentPost}}... and it really resonated with me.</p>

{{end}}<p>Your role as {{.Role}} at {{.Company}} caught my attention, especially given your insights on LinkedIn.</p>

<p>At {{.SenderCompany}}, we help companies optimize their AWS infrastructure and would love to discuss how we might support {{.Company}}'s growth.</p>

<p>Would you have 15 minutes for a quick call?</p>

<p>Thanks,</p>

<p>{{.Signature}}</p>`))

// truncateRunes shortens s to at most n runes, never splitting a multibyte
// sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type fallbackData struct {
	FirstName     string
	Role          string
	Company       string
	RecentPost    string
	SenderCompany string
	Signature     string
}

// Fallback renders the deterministic template email.
func (g *Generator) Fallback(profile *domain.Profile, firstName string) *domain.GeneratedEmail {
	if firstName == "" {
		firstName = profile.FirstName()
	}
	data := fallbackData{
		FirstName:     firstName,
		Role:          profile.JobTitle,
		Company:       profile.Company,
		SenderCompany: g.sender.Company,
		Signature:     strings.ReplaceAll(g.signature(), "\n", "<br>\n"),
	}
	if data.SenderCompany == "" {
		data.SenderCompany = "our company"
	}
	if len(profile.RecentPosts) > 0 {
		data.RecentPost = truncateRunes(profile.RecentPosts[0], 50)
	}

	var body strings.Builder
	if err := fallbackTmpl.Execute(&body, data); err != nil {
		g.logger.Error("fallback template failed", "err", err)
		return &domain.GeneratedEmail{
			Subject:  "Quick question",
			Body:     "<p>Hi " + firstName + ",</p><p>Would you have 15 minutes for a quick call?</p>",
			Fallback: true,
		}
	}

	return &domain.GeneratedEmail{
		Subject:  "Your recent LinkedIn post caught my attention",
		Body:     body.String(),
		Fallback: true,
	}
}
