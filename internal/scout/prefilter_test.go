package scout_test

import (
	"testing"

	"jobscout/scout-service/internal/model"
	"jobscout/scout-service/internal/scout"
)

func newPrefilter() *scout.Prefilter {
	return scout.NewPrefilter(scout.DefaultFilterConfig(), 70)
}

var prefilterRoles = []string{"Head of Growth", "VP Marketing", "Growth Lead"}

func applyOne(t *testing.T, p *scout.Prefilter, c model.Candidate) []model.Candidate {
	t.Helper()
	return p.Apply([]model.Candidate{c}, prefilterRoles, []string{"Bangalore"}, map[string]struct{}{})
}

// ── Rule 1: excluded companies and agencies ───────────────────────────────

func TestPrefilter_ExcludedCompany(t *testing.T) {
	p := newPrefilter()
	items := []model.Candidate{
		{Title: "Head of Growth", CompanyName: "Acme Inc", Location: "Bangalore"},
		{Title: "Head of Growth", CompanyName: "Beta Corp", Location: "Bangalore"},
	}
	excluded := map[string]struct{}{"acme inc": {}}
	got := p.Apply(items, prefilterRoles, []string{"Bangalore"}, excluded)
	if len(got) != 1 {
		t.Fatalf("Apply returned %d candidates, want 1", len(got))
	}
	if got[0].CompanyName != "Beta Corp" {
		t.Errorf("survivor = %q, want Beta Corp", got[0].CompanyName)
	}
}

func TestPrefilter_AgencyPhrase(t *testing.T) {
	p := newPrefilter()
	for _, company := range []string{
		"TalentBridge Staffing", "Apex Recruitment Agency Pvt Ltd", "Global Manpower Solutions",
	} {
		got := applyOne(t, p, model.Candidate{
			Title: "Head of Growth", CompanyName: company, Location: "Bangalore",
		})
		if len(got) != 0 {
			t.Errorf("agency company %q should be rejected", company)
		}
	}
}

// ── Rule 2: location allow-list ────────────────────────────────────────────

func TestPrefilter_LocationAllowList(t *testing.T) {
	p := newPrefilter()
	cases := []struct {
		location string
		pass     bool
	}{
		{"Bangalore, Karnataka", true},
		{"Bengaluru", true},
		{"Remote (India)", true},
		{"Work From Home", true},
		{"New York, NY", false},
		{"London, UK", false},
		{"", true}, // unknown location passes
	}
	for _, c := range cases {
		got := applyOne(t, p, model.Candidate{
			Title: "Head of Growth", CompanyName: "Beta Corp", Location: c.location,
		})
		if pass := len(got) == 1; pass != c.pass {
			t.Errorf("location %q: pass = %t, want %t", c.location, pass, c.pass)
		}
	}
}

// The user's own target locations extend the allow-list.
func TestPrefilter_TargetLocationExtendsAllowList(t *testing.T) {
	p := newPrefilter()
	item := model.Candidate{Title: "Head of Growth", CompanyName: "Beta Corp", Location: "Pune, Maharashtra"}

	// "Pune, Maharashtra" matches neither the default list nor "Mumbai".
	got := p.Apply([]model.Candidate{item}, prefilterRoles, []string{"Mumbai"}, map[string]struct{}{})
	if len(got) != 0 {
		t.Fatalf("Pune should not pass with target location Mumbai, got %d", len(got))
	}

	got = p.Apply([]model.Candidate{item}, prefilterRoles, []string{"Pune"}, map[string]struct{}{})
	if len(got) != 1 {
		t.Errorf("Pune should pass when the user targets Pune, got %d", len(got))
	}
}

// ── Rule 3: seniority keyword or fuzzy role match ─────────────────────────

func TestPrefilter_TitleAdmission(t *testing.T) {
	p := newPrefilter()
	cases := []struct {
		title string
		pass  bool
	}{
		{"Head of Growth Marketing", true},     // seniority keyword + role match
		{"Director of Brand", true},            // seniority keyword alone
		{"VP Marketing", true},                 // seniority keyword alone
		{"Growth Lead", true},                  // exact role
		{"Senior Backend Engineer", false},     // neither
		{"Junior Sales Associate", false},      // neither
		{"Software Engineer II", false},        // neither
	}
	for _, c := range cases {
		got := applyOne(t, p, model.Candidate{
			Title: c.title, CompanyName: "Beta Corp", Location: "Bangalore",
		})
		if pass := len(got) == 1; pass != c.pass {
			t.Errorf("title %q: pass = %t, want %t", c.title, pass, c.pass)
		}
	}
}

// ── Consumer-domain hint ───────────────────────────────────────────────────

// The hint is advisory: it must be set from the combined text but never
// change admission.
func TestPrefilter_ConsumerHint(t *testing.T) {
	p := newPrefilter()

	withHint := applyOne(t, p, model.Candidate{
		Title: "Head of Growth", CompanyName: "Beta Corp", Location: "Bangalore",
		Snippet: "Lead growth for our D2C snacks brand.",
	})
	if len(withHint) != 1 || !withHint[0].ConsumerHint {
		t.Errorf("D2C snippet should set ConsumerHint, got %+v", withHint)
	}

	withoutHint := applyOne(t, p, model.Candidate{
		Title: "Head of Growth", CompanyName: "Beta Corp", Location: "Bangalore",
		Snippet: "Enterprise SaaS infrastructure platform.",
	})
	if len(withoutHint) != 1 {
		t.Fatalf("candidate without consumer keywords must still pass, got %d", len(withoutHint))
	}
	if withoutHint[0].ConsumerHint {
		t.Error("ConsumerHint should be false without consumer keywords")
	}
}

// Rules short-circuit in order: an excluded company is rejected even with a
// perfect title and location.
func TestPrefilter_RuleOrder(t *testing.T) {
	p := newPrefilter()
	got := p.Apply(
		[]model.Candidate{{Title: "Head of Growth", CompanyName: "Acme Staffing", Location: "Bangalore"}},
		prefilterRoles, []string{"Bangalore"},
		map[string]struct{}{},
	)
	if len(got) != 0 {
		t.Error("agency phrase must reject regardless of title and location")
	}
}
