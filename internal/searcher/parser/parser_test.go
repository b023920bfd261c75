package parser

import (
	"reflect"
	"testing"

	"github.com/bestmax/bestmax/pkg/config"
)

func testCfg() config.SearchConfig {
	return config.SearchConfig{
		Fields:        map[string]float64{"title": 2.0, "description": 1.0},
		TieBreaker:    0.1,
		SynonymBoost:  0.7,
		SubtopicBoost: 0.5,
		Synonyms: map[string][]string{
			"shoe":   {"sneaker", "footwear"},
			"laptop": {"notebook", "Laptop"},
		},
		Subtopics: map[string][]string{
			"laptop": {"ultrabook"},
		},
	}
}

func TestParseSplitsOnWhitespace(t *testing.T) {
	pq := Parse("  red   shoes\tsale ", testCfg())
	if len(pq.Terms) != 3 {
		t.Fatalf("terms = %d, want 3", len(pq.Terms))
	}
	want := []string{"red", "shoes", "sale"}
	for i, w := range want {
		if pq.Terms[i].Text != w {
			t.Errorf("term %d = %q, want %q", i, pq.Terms[i].Text, w)
		}
	}
}

func TestParseEmptyQuery(t *testing.T) {
	pq := Parse("   ", testCfg())
	if len(pq.Terms) != 0 {
		t.Errorf("terms = %v, want none", pq.Terms)
	}
}

func TestParseAttachesExpansions(t *testing.T) {
	pq := Parse("laptop", testCfg())
	if len(pq.Terms) != 1 {
		t.Fatalf("terms = %d, want 1", len(pq.Terms))
	}
	term := pq.Terms[0]
	// "Laptop" equals the lookup key and must be dropped.
	if !reflect.DeepEqual(term.Synonyms, []string{"notebook"}) {
		t.Errorf("synonyms = %v, want [notebook]", term.Synonyms)
	}
	if !reflect.DeepEqual(term.Subtopics, []string{"ultrabook"}) {
		t.Errorf("subtopics = %v, want [ultrabook]", term.Subtopics)
	}
}

func TestParseExpansionLookupIsCaseInsensitive(t *testing.T) {
	pq := Parse("SHOE", testCfg())
	if len(pq.Terms[0].Synonyms) != 2 {
		t.Errorf("synonyms = %v, want both expansions", pq.Terms[0].Synonyms)
	}
	if pq.Terms[0].Text != "SHOE" {
		t.Errorf("text = %q, original casing must survive", pq.Terms[0].Text)
	}
}

func TestParseCopiesConfig(t *testing.T) {
	cfg := testCfg()
	pq := Parse("shoe", cfg)
	if pq.TieBreaker != 0.1 || pq.SynonymBoost != 0.7 || pq.SubtopicBoost != 0.5 {
		t.Errorf("dismax params not carried over: %+v", pq)
	}
	pq.FieldsAndBoosts["title"] = 99
	if cfg.Fields["title"] != 2.0 {
		t.Error("mutating the parsed query leaked into the config")
	}
}
