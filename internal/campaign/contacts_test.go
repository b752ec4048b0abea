package campaign

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadContacts(t *testing.T) {
	path := writeCSV(t, `First Name,Last Name,Email,Phone,Company,Title,Industry,AWS User - Gemini,Person Linkedin Url
Ana,Reyes,ana@example.com,555-0100,Acme,CTO,Software,confirmed,https://www.linkedin.com/in/ana-reyes
Bob,Lee,,,,,,,https://www.linkedin.com/in/bob-lee
Cara,Wu,cara@example.com,,Globex,VP Eng,Software,,
Dan,Ng,dan@example.com,,Initech,SRE,,,https://www.linkedin.com/in/dan-ng
`)

	contacts, skipped, err := LoadContacts(path)
	if err != nil {
		t.Fatalf("LoadContacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}

	first := contacts[0]
	if first.Email != "ana@example.com" || first.Company != "Acme" || first.AWSUsage != "confirmed" {
		t.Errorf("first contact = %+v", first)
	}
	if first.LinkedInURL != "https://www.linkedin.com/in/ana-reyes" {
		t.Errorf("LinkedInURL = %q", first.LinkedInURL)
	}
}

func TestLoadContactsColumnOrderIndependent(t *testing.T) {
	path := writeCSV(t, `Email,Person Linkedin Url,First Name
ana@example.com,https://www.linkedin.com/in/ana-reyes,Ana
`)

	contacts, _, err := LoadContacts(path)
	if err != nil {
		t.Fatalf("LoadContacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].FirstName != "Ana" {
		t.Fatalf("contacts = %+v", contacts)
	}
}

func TestLoadContactsEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	if _, _, err := LoadContacts(path); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestLoadContactsMissingFile(t *testing.T) {
	if _, _, err := LoadContacts(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSample(t *testing.T) {
	contacts := testContacts()

	if got := Sample(contacts, 0); len(got) != len(contacts) {
		t.Errorf("Sample limit 0 returned %d, want all %d", len(got), len(contacts))
	}
	if got := Sample(contacts, 10); len(got) != len(contacts) {
		t.Errorf("Sample limit 10 returned %d, want all %d", len(got), len(contacts))
	}

	got := Sample(contacts, 2)
	if len(got) != 2 {
		t.Fatalf("Sample limit 2 returned %d", len(got))
	}
	seen := map[string]bool{}
	for _, c := range contacts {
		seen[c.Email] = true
	}
	for _, c := range got {
		if !seen[c.Email] {
			t.Errorf("sampled unknown contact %q", c.Email)
		}
	}
}
