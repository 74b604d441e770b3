package rules

import "testing"

func TestParseSeedRules(t *testing.T) {
	params, err := ParseSeedRules()
	if err != nil {
		t.Fatalf("ParseSeedRules: %v", err)
	}

	want := map[string]int{
		"email_open":      10,
		"page_view":       5,
		"form_submission": 20,
		"demo_request":    50,
		"purchase":        100,
	}
	if len(params) != len(want) {
		t.Fatalf("got %d seed rules, want %d", len(params), len(want))
	}

	for _, p := range params {
		points, ok := want[p.EventType]
		if !ok {
			t.Errorf("unexpected seed rule %q", p.EventType)
			continue
		}
		if p.Points != points {
			t.Errorf("%s points = %d, want %d", p.EventType, p.Points, points)
		}
		if !p.Active {
			t.Errorf("%s seeded inactive", p.EventType)
		}
	}
}
