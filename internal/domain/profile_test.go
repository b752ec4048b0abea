package domain

import "testing"

func TestFallbackProfile_HyphenSlug(t *testing.T) {
	p := FallbackProfile("https://www.linkedin.com/in/joel-garcia/")
	if p.Name != "Joel Garcia" {
		t.Fatalf("expected 'Joel Garcia', got %q", p.Name)
	}
	if !p.Fallback {
		t.Fatal("fallback profile must be marked Fallback")
	}
}

func TestFallbackProfile_CamelSlug(t *testing.T) {
	p := FallbackProfile("https://linkedin.com/in/joelGarcia")
	if p.Name != "Joel Garcia" {
		t.Fatalf("expected 'Joel Garcia', got %q", p.Name)
	}
}

func TestFallbackProfile_NumericSuffixDropped(t *testing.T) {
	p := FallbackProfile("https://linkedin.com/in/jane-doe-0a7963139")
	if p.Name != "Jane Doe" {
		t.Fatalf("expected 'Jane Doe', got %q", p.Name)
	}
}

func TestFallbackProfile_EmptySlug(t *testing.T) {
	p := FallbackProfile("")
	if p.Name != "LinkedIn User" {
		t.Fatalf("expected placeholder name, got %q", p.Name)
	}
}

func TestFirstNameFromEmail(t *testing.T) {
	cases := map[string]string{
		"jane.doe@example.com": "Jane Doe",
		"bob_smith@corp.io":    "Bob Smith",
		"alice@startup.dev":    "Alice",
	}
	for in, want := range cases {
		if got := FirstNameFromEmail(in); got != want {
			t.Errorf("FirstNameFromEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProfileFirstName(t *testing.T) {
	p := &Profile{Name: "Joel Garcia"}
	if got := p.FirstName(); got != "Joel" {
		t.Fatalf("expected 'Joel', got %q", got)
	}
	var nilProfile *Profile
	if got := nilProfile.FirstName(); got != "" {
		t.Fatalf("expected empty for nil profile, got %q", got)
	}
}

func TestContactFullName(t *testing.T) {
	c := Contact{FirstName: "Jane", LastName: "Doe"}
	if c.FullName() != "Jane Doe" {
		t.Fatalf("got %q", c.FullName())
	}
	if (Contact{FirstName: "Jane"}).FullName() != "Jane" {
		t.Fatal("single first name")
	}
}
