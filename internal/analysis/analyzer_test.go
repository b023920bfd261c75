package analysis

import (
	"reflect"
	"testing"

	"github.com/bestmax/bestmax/pkg/config"
)

func TestAnalyzeFullChain(t *testing.T) {
	a := New(config.AnalyzerConfig{
		Lowercase:      true,
		MinTokenLength: 2,
		StopWords:      true,
		Stemming:       true,
	})

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercase and split", "Red-Shoes", []string{"red", "sho"}},
		{"stop words removed", "the cat and the hat", []string{"cat", "hat"}},
		{"short tokens removed", "a b cd", []string{"cd"}},
		{"stemming", "running walked stories", []string{"runn", "walk", "story"}},
		{"punctuation split", "state-of-the-art design!", []string{"state", "art", "design"}},
		{"empty", "", nil},
		{"stop words only", "the and of", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Analyze(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnalyzeStagesCanBeDisabled(t *testing.T) {
	a := New(config.AnalyzerConfig{Lowercase: false, MinTokenLength: 1, StopWords: false, Stemming: false})
	got := a.Analyze("The Running Shoes")
	want := []string{"The", "Running", "Shoes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %v, want %v", got, want)
	}
}

func TestAnalyzeKeepsDuplicates(t *testing.T) {
	a := New(config.AnalyzerConfig{Lowercase: true, MinTokenLength: 2})
	got := a.Analyze("shoes shoes")
	if len(got) != 2 {
		t.Errorf("Analyze = %v, duplicates must be preserved for term frequencies", got)
	}
}

func TestStem(t *testing.T) {
	tests := []struct{ in, want string }{
		{"relational", "relate"},
		{"conditional", "condition"},
		{"agencies", "agence"},
		{"payments", "payment"},
		{"stories", "story"},
		{"happily", "happi"},
		{"glass", "glass"},
		{"cats", "cat"},
		{"as", "as"},
	}
	for _, tt := range tests {
		if got := stem(tt.in); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
