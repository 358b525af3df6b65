package ranking

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/resume-analyzer/internal/schemas"
	schemafiles "github.com/jonathan/resume-analyzer/schemas"
)

// DefaultRulesVersion identifies the built-in rule tables
const DefaultRulesVersion = "2024.1"

// Section names the scorer reads by name
const (
	SkillsSection   = "skills"
	ProjectsSection = "projects"
)

// Buckets holds the keyword catalogs scored together per rubric dimension
type Buckets struct {
	Skills        []string `json:"skills"`
	Achievements  []string `json:"achievements"`
	GenericFiller []string `json:"generic_filler"`
	Education     []string `json:"education"`
}

// Weights caps each rubric dimension's contribution to the score
type Weights struct {
	Skills       int `json:"skills"`
	Experience   int `json:"experience"`
	Achievements int `json:"achievements"`
	Education    int `json:"education"`
	Formatting   int `json:"formatting"`
}

// Constants are the per-signal point values
type Constants struct {
	KeywordCap               int `json:"keyword_cap"`     // max occurrences counted per keyword
	ProximityBonus           int `json:"proximity_bonus"` // per skill found in both skills and experience
	FillerPenalty            int `json:"filler_penalty"`  // per generic filler occurrence
	FillerRelief             int `json:"filler_relief"`   // subtracted from the penalty when claims are quantified
	SkillPoints              int `json:"skill_points"`
	ExperienceBlockChars     int `json:"experience_block_chars"`
	ExperienceBlockPoints    int `json:"experience_block_points"`
	QuantifiablePoints       int `json:"quantifiable_points"`
	AchievementKeywordPoints int `json:"achievement_keyword_points"`
	EducationPoints          int `json:"education_points"`
	HeaderPairPoints         int `json:"header_pair_points"`
}

// Thresholds decide which feedback messages fire
type Thresholds struct {
	SkillsStrength       int `json:"skills_strength"`
	ProximityStrength    int `json:"proximity_strength"`
	QuantifiableStrength int `json:"quantifiable_strength"`
	HeaderStrength       int `json:"header_strength"`
}

// RuleSet is the versioned configuration the scorer is compiled from
type RuleSet struct {
	Version            string     `json:"version"`
	Headers            []string   `json:"headers"`
	ExperienceSections []string   `json:"experience_sections"`
	Buckets            Buckets    `json:"buckets"`
	AchievementVerbs   []string   `json:"achievement_verbs"`
	QuantityUnits      []string   `json:"quantity_units"`
	Weights            Weights    `json:"weights"`
	Constants          Constants  `json:"constants"`
	Thresholds         Thresholds `json:"thresholds"`
}

// DefaultRules returns the built-in rule tables
func DefaultRules() RuleSet {
	return RuleSet{
		Version: DefaultRulesVersion,
		Headers: []string{
			"experience", "work experience", "professional experience", "projects",
			"education", "skills", "summary", "certifications", "achievements",
		},
		ExperienceSections: []string{"experience", "work experience", "professional experience"},
		Buckets: Buckets{
			Skills: []string{
				"javascript", "typescript", "react", "node", "python", "java", "docker", "kubernetes",
				"aws", "gcp", "azure", "sql", "nosql", "postgres", "mongodb", "redis", "graphql",
				"rest", "ci/cd", "jest", "cypress", "vite",
			},
			Achievements: []string{
				"increased", "reduced", "improved", "optimized", "%", "growth", "revenue",
				"latency", "throughput", "conversion", "retention",
			},
			GenericFiller: []string{"hardworking", "dedicated", "team player", "fast learner"},
			Education: []string{
				"bachelor", "master", "bsc", "msc", "phd", "computer science", "engineering", "cgpa", "gpa",
			},
		},
		AchievementVerbs: []string{"increased", "reduced", "improved", "optimized"},
		QuantityUnits:    []string{"users", "transactions", "requests", "ms", "s", "minutes", "hours"},
		Weights: Weights{
			Skills:       30,
			Experience:   30,
			Achievements: 20,
			Education:    10,
			Formatting:   10,
		},
		Constants: Constants{
			KeywordCap:               5,
			ProximityBonus:           5,
			FillerPenalty:            3,
			FillerRelief:             5,
			SkillPoints:              2,
			ExperienceBlockChars:     500,
			ExperienceBlockPoints:    5,
			QuantifiablePoints:       4,
			AchievementKeywordPoints: 2,
			EducationPoints:          8,
			HeaderPairPoints:         2,
		},
		Thresholds: Thresholds{
			SkillsStrength:       20,
			ProximityStrength:    10,
			QuantifiableStrength: 2,
			HeaderStrength:       3,
		},
	}
}

// ParseRules decodes and schema-validates a JSON rule set
func ParseRules(data []byte) (RuleSet, error) {
	if err := schemas.Validate(schemafiles.RuleSet, data); err != nil {
		return RuleSet{}, &RuleSetError{Message: "rule set does not match schema", Cause: err}
	}

	var rules RuleSet
	if err := json.Unmarshal(data, &rules); err != nil {
		return RuleSet{}, &RuleSetError{Message: "failed to decode rule set", Cause: err}
	}
	return rules, nil
}

// LoadRules reads a JSON rule set from path
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, &RuleSetError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	rules, err := ParseRules(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// ToJSON marshals the rule set to pretty-printed JSON
func (r RuleSet) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule set to JSON: %w", err)
	}
	return jsonBytes, nil
}
