package competition

import "testing"

func TestSourceURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source Source
		want   string
	}{
		{source: Source{BaseURL: "https://www.fotbal.cz/", Slug: "/souteze/turnaje/hlavni/1"}, want: "https://www.fotbal.cz/souteze/turnaje/hlavni/1"},
		{source: Source{BaseURL: "https://example.com", Slug: ""}, want: "https://example.com"},
	}
	for _, tt := range tests {
		if got := tt.source.URL(); got != tt.want {
			t.Fatalf("unexpected url: got=%s want=%s", got, tt.want)
		}
	}
}

func TestCompetitionValidate(t *testing.T) {
	t.Parallel()

	valid := Competition{Code: "CZE1", NeededCount: 8, Sources: []Source{{BaseURL: "https://example.com"}}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid competition: %v", err)
	}

	invalid := valid
	invalid.NeededCount = 0
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected error for zero needed count")
	}
}
