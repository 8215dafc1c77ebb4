package knowledge

import (
	"reflect"
	"testing"

	"replyloop/models"
	"replyloop/store"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Does this integrate with Salesforce?", []string{"integrate", "salesforce"}},
		{"What is the pricing for 50 seats?", []string{"pricing", "seats"}},
		{"a an the and or", nil},
		{"", nil},
		{"SSO sso SSO", []string{"sso"}},
	}

	for _, tc := range tests {
		got := Tokenize(tc.query)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestAssessCoverage(t *testing.T) {
	weak := Hit{Score: 0.3}
	strong := Hit{Score: 0.8}

	tests := []struct {
		name string
		hits []Hit
		want Coverage
	}{
		{"no hits", nil, CoverageNone},
		{"one weak hit", []Hit{weak}, CoveragePartial},
		{"two weak hits", []Hit{weak, weak}, CoveragePartial},
		{"one strong hit", []Hit{strong}, CoverageFull},
		{"three weak hits", []Hit{weak, weak, weak}, CoverageFull},
		{"strong among weak", []Hit{weak, strong}, CoverageFull},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AssessCoverage(tc.hits); got != tc.want {
				t.Errorf("AssessCoverage = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSearchScoresAndOrders(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddKnowledgeDoc(&models.KnowledgeDoc{
		Title:    "Pricing tiers",
		Content:  "Pricing starts at $99 per seat per month.",
		Keywords: "pricing,cost,seats",
	})
	st.AddKnowledgeDoc(&models.KnowledgeDoc{
		Title:    "Security overview",
		Content:  "SOC 2 Type II, encryption at rest, SSO via SAML.",
		Keywords: "security,soc2,sso",
	})

	svc := NewService(st)

	hits, err := svc.Search("What is your pricing for 20 seats?", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if hits[0].Doc.Title != "Pricing tiers" {
		t.Errorf("top hit = %q", hits[0].Doc.Title)
	}
	if hits[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0 (both tokens matched)", hits[0].Score)
	}

	hits, err = svc.Search("Tell me about pricing and security", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
}

func TestSearchScopesByProduct(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddKnowledgeDoc(&models.KnowledgeDoc{
		Title:   "Widgets onboarding",
		Content: "Widgets onboarding takes two weeks.",
		Product: "widgets",
	})
	st.AddKnowledgeDoc(&models.KnowledgeDoc{
		Title:   "Gadgets onboarding",
		Content: "Gadgets onboarding takes one day.",
		Product: "gadgets",
	})

	svc := NewService(st)
	hits, err := svc.Search("how long does onboarding take", "widgets")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Doc.Title != "Widgets onboarding" {
		t.Errorf("product scoping failed: %+v", hits)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	hits, err := svc.Search("the and or", "")
	if err != nil {
		t.Fatal(err)
	}
	if hits != nil {
		t.Errorf("expected nil hits for stopword-only query, got %v", hits)
	}
}
