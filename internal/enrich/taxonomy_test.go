package enrich

import (
	"errors"
	"strings"
	"testing"
)

func TestTaxonomyRenderMatchesPromptLayout(t *testing.T) {
	rendered := DefaultTaxonomy.Render()
	lines := strings.Split(rendered, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 category lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "* Data Analytics 1.1. Business Intelligence 1.1.1. Dashboards 1.1.1.1. Interactive Dashboards") {
		t.Fatalf("unexpected first line: %s", lines[0])
	}
	if !strings.HasSuffix(lines[3], "4.4.1. Automated Insights 4.4.2. AI-Enhanced Dashboards") {
		t.Fatalf("unexpected last line: %s", lines[3])
	}
}

func TestTaxonomyLookup(t *testing.T) {
	cases := []struct {
		tag  string
		want bool
	}{
		{"3.3.2.1. dbt", true},
		{"3.3.2.1 dbt", true},
		{"dbt", true},
		{"DBT", true},
		{"[1.1.2. Reporting Tools]", true},
		{"2.3", true},
		{"Data Analytics", true},
		{"1.1.2. Looker", false},
		{"9.9 Blockchain", false},
		{"Blockchain", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := DefaultTaxonomy.Contains(tc.tag); got != tc.want {
			t.Fatalf("Contains(%q) = %v, want %v", tc.tag, got, tc.want)
		}
	}
}

func TestParseClassification(t *testing.T) {
	text := "Primary Tag: [3.1.1.1. BigQuery]\nSecondary Tags: [3.1.1. Cloud Data Warehouses, 2.3.1. Google Cloud]"
	c, err := ParseClassification(text)
	if err != nil {
		t.Fatalf("ParseClassification returned error: %v", err)
	}
	if c.Primary != "3.1.1.1. BigQuery" {
		t.Fatalf("unexpected primary %q", c.Primary)
	}
	if len(c.Secondary) != 2 || c.Secondary[1] != "2.3.1. Google Cloud" {
		t.Fatalf("unexpected secondary %q", c.Secondary)
	}
}

func TestParseClassificationMarkdown(t *testing.T) {
	text := "**Primary Tag:** Looker\n- **Secondary Tags:** Dashboards, KPI Dashboards"
	c, err := ParseClassification(text)
	if err != nil {
		t.Fatalf("ParseClassification returned error: %v", err)
	}
	if c.Primary != "Looker" || len(c.Secondary) != 2 {
		t.Fatalf("unexpected classification %+v", c)
	}
}

func TestParseClassificationMissingPrimary(t *testing.T) {
	if _, err := ParseClassification("I think this is about data."); !errors.Is(err, ErrNoPrimaryTag) {
		t.Fatalf("expected ErrNoPrimaryTag, got %v", err)
	}
}

func TestTaxonomyValidate(t *testing.T) {
	if _, note := DefaultTaxonomy.Validate("Primary Tag: dbt\nSecondary Tags: Data Quality"); note != "" {
		t.Fatalf("expected clean validation, got %q", note)
	}
	c, note := DefaultTaxonomy.Validate("Primary Tag: dbt\nSecondary Tags: Data Quality, Quantum Computing")
	if c.Primary != "dbt" || !strings.Contains(note, `"Quantum Computing"`) {
		t.Fatalf("unexpected validation result %+v %q", c, note)
	}
	if _, note := DefaultTaxonomy.Validate("no tags here"); note == "" {
		t.Fatal("expected note for unparseable text")
	}
}
