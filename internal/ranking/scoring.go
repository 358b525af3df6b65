// Package ranking scores resume text against a versioned rubric of keyword
// buckets, section structure and quantified-achievement signals.
package ranking

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-analyzer/internal/parsing"
	"github.com/jonathan/resume-analyzer/internal/types"
)

type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

type bucket struct {
	name     string
	keywords []keywordMatcher
}

// Scorer is a compiled RuleSet. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	rules RuleSet

	buckets      []bucket
	skills       []keywordMatcher
	filler       []keywordMatcher
	verbs        []keywordMatcher
	headers      []keywordMatcher
	quantClasses []*regexp.Regexp
}

// Breakdown holds the intermediate values an analysis is derived from
type Breakdown struct {
	Skills           int  `json:"skills"`
	Experience       int  `json:"experience"`
	Achievements     int  `json:"achievements"`
	Education        int  `json:"education"`
	Formatting       int  `json:"formatting"`
	ProximityBonus   int  `json:"proximity_bonus"`
	FillerPenalty    int  `json:"filler_penalty"`
	Quantifiable     int  `json:"quantifiable"`
	HeadersFound     int  `json:"headers_found"`
	HasQuantifiable  bool `json:"has_quantifiable"`
	ExperienceLength int  `json:"experience_length"`
}

var defaultScorer = NewScorer(DefaultRules())

// Analyze scores text with the built-in rules
func Analyze(text string) *types.AnalysisResult {
	return defaultScorer.Analyze(text)
}

// NewScorer compiles rules into a Scorer
func NewScorer(rules RuleSet) *Scorer {
	s := &Scorer{
		rules:   rules,
		skills:  compileKeywords(rules.Buckets.Skills),
		filler:  compileKeywords(rules.Buckets.GenericFiller),
		verbs:   compileKeywords(rules.AchievementVerbs),
		headers: compileKeywords(rules.Headers),
	}
	s.buckets = []bucket{
		{name: types.BucketSkills, keywords: s.skills},
		{name: types.BucketAchievements, keywords: compileKeywords(rules.Buckets.Achievements)},
		{name: types.BucketGenericFiller, keywords: s.filler},
		{name: types.BucketEducation, keywords: compileKeywords(rules.Buckets.Education)},
	}
	s.quantClasses = compileQuantifiable(rules.AchievementVerbs, rules.QuantityUnits)
	return s
}

// Rules returns the rule set the scorer was compiled from
func (s *Scorer) Rules() RuleSet {
	return s.rules
}

// Analyze scores text. It never fails: any string, including "", yields a result.
func (s *Scorer) Analyze(text string) *types.AnalysisResult {
	result, _ := s.AnalyzeWithBreakdown(text)
	return result
}

// AnalyzeWithBreakdown scores text and also returns the sub-scores and signals
func (s *Scorer) AnalyzeWithBreakdown(text string) (*types.AnalysisResult, Breakdown) {
	normalized := parsing.Normalize(text)
	canonical := parsing.Canonical(normalized)
	sections := parsing.Segment(parsing.NormalizeLines(text), s.rules.Headers)

	experienceText := sections.Join(s.experienceSections()...)
	skillsText := parsing.Canonical(sections.Get(SkillsSection))
	experience := parsing.Canonical(experienceText)
	projects := parsing.Canonical(sections.Get(ProjectsSection))

	corpus := strings.Join([]string{skillsText, experience, projects, canonical}, " ")
	matched := make(map[string]types.RuleMatch, len(s.buckets))
	for _, b := range s.buckets {
		matched[b.name] = s.matchBucket(b, corpus)
	}

	var bd Breakdown
	bd.ExperienceLength = utf8.RuneCountInString(experienceText)

	for _, kw := range s.skills {
		if kw.re.MatchString(skillsText) && kw.re.MatchString(experience) {
			bd.ProximityBonus += s.rules.Constants.ProximityBonus
		}
	}

	for _, re := range s.quantClasses {
		bd.Quantifiable += len(re.FindAllStringIndex(normalized, -1))
	}

	bd.HasQuantifiable = bd.Quantifiable > 0 || anyMatch(s.verbs, canonical)
	for _, kw := range s.filler {
		bd.FillerPenalty += s.rules.Constants.FillerPenalty * len(kw.re.FindAllStringIndex(canonical, -1))
	}
	if bd.HasQuantifiable {
		bd.FillerPenalty = max(0, bd.FillerPenalty-s.rules.Constants.FillerRelief)
	}

	for _, h := range s.headers {
		if h.re.MatchString(canonical) {
			bd.HeadersFound++
		}
	}

	c := s.rules.Constants
	w := s.rules.Weights
	bd.Skills = min(w.Skills, c.SkillPoints*matched[types.BucketSkills].Matched)
	blocks := 0
	if c.ExperienceBlockChars > 0 {
		blocks = bd.ExperienceLength / c.ExperienceBlockChars
	}
	bd.Experience = min(w.Experience, c.ExperienceBlockPoints*blocks+bd.ProximityBonus)
	achievements := c.QuantifiablePoints * bd.Quantifiable
	if matched[types.BucketAchievements].Matched > 0 {
		achievements += c.AchievementKeywordPoints
	}
	bd.Achievements = min(w.Achievements, achievements)
	if matched[types.BucketEducation].Matched > 0 {
		bd.Education = min(w.Education, c.EducationPoints)
	}
	bd.Formatting = min(w.Formatting, c.HeaderPairPoints*(bd.HeadersFound/2))

	raw := bd.Skills + bd.Experience + bd.Achievements + bd.Education + bd.Formatting - bd.FillerPenalty
	score := max(0, min(100, raw))

	result := &types.AnalysisResult{
		Score:        score,
		MatchedRules: matched,
	}
	s.applyFeedback(result, bd)
	return result, bd
}

func (s *Scorer) experienceSections() []string {
	names := make([]string, len(s.rules.ExperienceSections))
	for i, name := range s.rules.ExperienceSections {
		names[i] = parsing.Canonical(strings.TrimSpace(name))
	}
	return names
}

// matchBucket counts word-boundary occurrences of each keyword in corpus,
// capping each keyword's contribution at KeywordCap.
func (s *Scorer) matchBucket(b bucket, corpus string) types.RuleMatch {
	m := types.RuleMatch{
		TotalKeywords:   len(b.keywords),
		MatchedKeywords: []string{},
	}
	for _, kw := range b.keywords {
		n := len(kw.re.FindAllStringIndex(corpus, -1))
		if n == 0 {
			continue
		}
		m.Matched += min(n, s.rules.Constants.KeywordCap)
		m.MatchedKeywords = append(m.MatchedKeywords, fmt.Sprintf("%s×%d", kw.keyword, n))
	}
	return m
}

func anyMatch(keywords []keywordMatcher, text string) bool {
	for _, kw := range keywords {
		if kw.re.MatchString(text) {
			return true
		}
	}
	return false
}

func compileKeywords(keywords []string) []keywordMatcher {
	out := make([]keywordMatcher, 0, len(keywords))
	for _, kw := range keywords {
		kw = parsing.Canonical(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		out = append(out, keywordMatcher{keyword: kw, re: regexp.MustCompile(keywordPattern(kw))})
	}
	return out
}

// keywordPattern anchors kw on word boundaries, but only on sides that start
// or end with a word character; "%" would otherwise never match.
func keywordPattern(kw string) string {
	pattern := regexp.QuoteMeta(kw)
	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)
	if isWordRune(first) {
		pattern = `\b` + pattern
	}
	if isWordRune(last) {
		pattern += `\b`
	}
	return pattern
}

func isWordRune(r rune) bool {
	return r == '_' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// compileQuantifiable builds the three quantified-achievement classes:
// verb ... [by] N%, verb ... [by] N, and a bare N% or N followed by a unit.
func compileQuantifiable(verbs, units []string) []*regexp.Regexp {
	var classes []*regexp.Regexp
	if verbAlt := alternation(verbs); verbAlt != "" {
		classes = append(classes,
			regexp.MustCompile(`(?i)\b(?:`+verbAlt+`)\b[^\n\r.]*(?:by)?\s*\d+%`),
			regexp.MustCompile(`(?i)\b(?:`+verbAlt+`)\b[^\n\r.]*(?:by)?\s*\d+`),
		)
	}
	bare := `\b\d+%`
	if unitAlt := alternation(units); unitAlt != "" {
		bare += `|\b\d+\s+(?:` + unitAlt + `)\b`
	}
	return append(classes, regexp.MustCompile(`(?i)`+bare))
}

func alternation(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	return strings.Join(quoted, "|")
}
