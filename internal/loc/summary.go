package loc

import (
	"sort"
	"strings"
)

// LanguageSummary aggregates counts for one language.
type LanguageSummary struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
	Code     int    `json:"code"`
	Comment  int    `json:"comment"`
	Blank    int    `json:"blank"`
}

// Summary aggregates file analyses per language.
type Summary struct {
	byLanguage map[string]*LanguageSummary
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{byLanguage: map[string]*LanguageSummary{}}
}

// Add folds one file analysis into the summary.
func (s *Summary) Add(fa FileAnalysis) {
	ls := s.byLanguage[fa.Language]
	if ls == nil {
		ls = &LanguageSummary{Language: fa.Language}
		s.byLanguage[fa.Language] = ls
	}
	ls.Files++
	ls.Code += fa.Code
	ls.Comment += fa.Comment
	ls.Blank += fa.Blank
}

// Languages returns per-language summaries sorted by language name.
func (s *Summary) Languages() []LanguageSummary {
	out := make([]LanguageSummary, 0, len(s.byLanguage))
	for _, ls := range s.byLanguage {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// CodeByPrefix folds code counts into the requested language buckets.
// A language contributes to a bucket when its name starts with the bucket
// name, so a "JavaScript" bucket also captures JavaScript dialect variants.
// Every requested bucket is present in the result, zero-valued when nothing
// matched.
func (s *Summary) CodeByPrefix(buckets []string) map[string]int {
	out := make(map[string]int, len(buckets))
	for _, b := range buckets {
		out[b] = 0
	}
	for name, ls := range s.byLanguage {
		for _, b := range buckets {
			if strings.HasPrefix(name, b) {
				out[b] += ls.Code
			}
		}
	}
	return out
}
