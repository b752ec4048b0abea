package campaign

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"outreach/internal/domain"
)

// CSV column headers as exported by the contact-list tooling.
const (
	colLinkedInURL = "Person Linkedin Url"
	colFirstName   = "First Name"
	colLastName    = "Last Name"
	colEmail       = "Email"
	colPhone       = "Phone"
	colCompany     = "Company"
	colTitle       = "Title"
	colIndustry    = "Industry"
	colAWSUsage    = "AWS User - Gemini"
)

// LoadContacts reads a contact CSV and returns the rows that carry both an
// email address and a LinkedIn URL; everything else is skipped and counted.
func LoadContacts(path string) ([]domain.Contact, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open contacts file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read contacts csv: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("contacts file %s is empty", path)
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var contacts []domain.Contact
	skipped := 0
	for _, row := range records[1:] {
		c := domain.Contact{
			FirstName:   field(row, colFirstName),
			LastName:    field(row, colLastName),
			Email:       field(row, colEmail),
			Phone:       field(row, colPhone),
			Company:     field(row, colCompany),
			Title:       field(row, colTitle),
			Industry:    field(row, colIndustry),
			AWSUsage:    field(row, colAWSUsage),
			LinkedInURL: field(row, colLinkedInURL),
		}
		if c.Email == "" || c.LinkedInURL == "" {
			skipped++
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, skipped, nil
}

// Sample returns up to limit contacts picked at random without replacement;
// limit <= 0 or >= len returns the input unchanged.
func Sample(contacts []domain.Contact, limit int) []domain.Contact {
	if limit <= 0 || limit >= len(contacts) {
		return contacts
	}
	picked := make([]domain.Contact, 0, limit)
	for _, i := range rand.Perm(len(contacts))[:limit] {
		picked = append(picked, contacts[i])
	}
	return picked
}
