package extract

import (
	"regexp"
	"strings"

	"github.com/poiesic/groundwork/core"
)

// absolutesPattern flags overconfident phrasing that rarely survives
// contact with evidence.
var absolutesPattern = regexp.MustCompile(`(?i)\b(100%|always|never|guaranteed|zero risk)\b`)

// Anomaly score increments. They sum, so one missing anchor plus no
// context already clears a 0.5 threshold.
const (
	absoluteClaimScore = 0.2
	anchorMissingScore = 0.4
	noContextScore     = 0.1
)

// EvaluateGroundedness scores how poorly a candidate answer is anchored
// in its evidence. Higher is worse. It returns the accumulated anomaly
// score, clamped to 1.0, plus the machine-parseable reasons that
// contributed.
//
// Anchors are strings the answer claims as facts (e.g. the extracted
// company name); each anchor absent from both the text and every
// context adds anchor_missing:<anchor>. Absolute phrasing adds
// absolute_claim, and an empty context set adds no_context.
func EvaluateGroundedness(text string, anchors, contexts []string) (float64, []string) {
	var reasons []string
	score := 0.0

	if absolutesPattern.MatchString(text) {
		reasons = append(reasons, core.ReasonAbsoluteClaim)
		score += absoluteClaimScore
	}

	body := strings.ToLower(text)
	for _, anchor := range anchors {
		needle := strings.ToLower(strings.TrimSpace(anchor))
		if needle == "" {
			continue
		}
		if strings.Contains(body, needle) {
			continue
		}
		if anchorInContexts(needle, contexts) {
			continue
		}
		reasons = append(reasons, "anchor_missing:"+anchor)
		score += anchorMissingScore
	}

	if len(contexts) == 0 {
		reasons = append(reasons, core.ReasonNoContext)
		score += noContextScore
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

func anchorInContexts(needle string, contexts []string) bool {
	for _, c := range contexts {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}
