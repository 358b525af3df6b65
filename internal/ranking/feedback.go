package ranking

import "github.com/jonathan/resume-analyzer/internal/types"

// Feedback messages, emitted in this order: skills, proximity, achievements, formatting, filler
const (
	MsgStrongSkills       = "Strong skills section with relevant technologies."
	MsgExpandSkills       = "Expand skills section with specific technologies relevant to the role."
	MsgSkillsSubstantiate = "Skills are substantiated within experience."
	MsgApplySkills        = "Include concrete examples where listed skills were applied in experience."
	MsgQuantified         = "Quantifiable achievements present."
	MsgAddMeasurable      = "Add measurable outcomes (e.g., increased X by Y%)."
	MsgClearStructure     = "Clear structure with common section headers."
	MsgUnclearStructure   = "Resume structure could be clearer with standard headers."
	MsgGenericClaims      = "Generic claims without supporting details detected."
)

// applyFeedback fills strengths, weaknesses and recommendations. Each rule
// fires at most once.
func (s *Scorer) applyFeedback(result *types.AnalysisResult, bd Breakdown) {
	t := s.rules.Thresholds
	result.Strengths = []string{}
	result.Weaknesses = []string{}
	result.Recommendations = []string{}

	if bd.Skills >= t.SkillsStrength {
		result.Strengths = append(result.Strengths, MsgStrongSkills)
	} else {
		result.Recommendations = append(result.Recommendations, MsgExpandSkills)
	}

	if bd.ProximityBonus >= t.ProximityStrength {
		result.Strengths = append(result.Strengths, MsgSkillsSubstantiate)
	} else {
		result.Recommendations = append(result.Recommendations, MsgApplySkills)
	}

	if bd.Quantifiable >= t.QuantifiableStrength {
		result.Strengths = append(result.Strengths, MsgQuantified)
	} else {
		result.Recommendations = append(result.Recommendations, MsgAddMeasurable)
	}

	if bd.HeadersFound >= t.HeaderStrength {
		result.Strengths = append(result.Strengths, MsgClearStructure)
	} else {
		result.Weaknesses = append(result.Weaknesses, MsgUnclearStructure)
	}

	if bd.FillerPenalty >= s.rules.Constants.FillerPenalty && bd.FillerPenalty > 0 && !bd.HasQuantifiable {
		result.Weaknesses = append(result.Weaknesses, MsgGenericClaims)
	}
}
