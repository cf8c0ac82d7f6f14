package extract

import "github.com/poiesic/groundwork/core"

// ComposeAnswer folds an extraction envelope into the caller-facing
// answer. Abstentions propagate with their reasons; successful
// extractions expose only sanitized fields plus citation handles
// (doc_id, chunk_idx, sha1), never raw context text.
func ComposeAnswer(env *Envelope) *core.AnswerEnvelope {
	meta := core.AnswerMeta{
		Model:        env.Model,
		Usage:        env.Usage,
		LatencyMS:    env.LatencyMS,
		ContextCount: len(env.Contexts),
	}

	if !env.OK || env.Abstain != nil {
		reasons := []string{core.ReasonExtractFailed}
		if env.Abstain != nil && len(env.Abstain.Reasons) > 0 {
			reasons = env.Abstain.Reasons
		}
		return &core.AnswerEnvelope{
			OK:        false,
			Abstained: true,
			Reasons:   reasons,
			Citations: []core.Citation{},
			Meta:      meta,
		}
	}

	citations := env.Citations
	if citations == nil {
		citations = []core.Citation{}
	}

	return &core.AnswerEnvelope{
		OK: true,
		Answer: &core.Answer{
			Company: env.Data.Company,
			Website: env.Data.Website,
			Topics:  env.Data.Topics,
		},
		Citations: citations,
		Meta:      meta,
	}
}
