// Package types provides type definitions for structured data used throughout the resume-analyzer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Bucket names used as keys of AnalysisResult.MatchedRules
const (
	BucketSkills        = "skills"
	BucketAchievements  = "achievements"
	BucketGenericFiller = "generic_filler"
	BucketEducation     = "education"
)

// RuleMatch summarizes how one keyword bucket matched a document
type RuleMatch struct {
	Matched         int      `json:"matched"`          // Sum of per-keyword occurrences, each capped
	TotalKeywords   int      `json:"total_keywords"`   // Size of the bucket's keyword catalog
	MatchedKeywords []string `json:"matched_keywords"` // "keyword×occurrences" in catalog order
}

// AnalysisResult is the output of scoring a resume's text
type AnalysisResult struct {
	Score           int                  `json:"score"` // 0-100 inclusive
	Strengths       []string             `json:"strengths"`
	Weaknesses      []string             `json:"weaknesses"`
	Recommendations []string             `json:"recommendations"`
	MatchedRules    map[string]RuleMatch `json:"matched_rules"`
}

// Clone returns a deep copy of the result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	return &AnalysisResult{
		Score:           r.Score,
		Strengths:       cloneStrings(r.Strengths),
		Weaknesses:      cloneStrings(r.Weaknesses),
		Recommendations: cloneStrings(r.Recommendations),
		MatchedRules:    CloneMatchedRules(r.MatchedRules),
	}
}

// CloneMatchedRules deep-copies a matched-rule map. A nil map stays nil.
func CloneMatchedRules(in map[string]RuleMatch) map[string]RuleMatch {
	if in == nil {
		return nil
	}
	out := make(map[string]RuleMatch, len(in))
	for name, match := range in {
		out[name] = RuleMatch{
			Matched:         match.Matched,
			TotalKeywords:   match.TotalKeywords,
			MatchedKeywords: cloneStrings(match.MatchedKeywords),
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
