package extract

import "fmt"

const systemExtract = `You are a careful extraction engine.
Rules:
- Output strictly valid JSON that matches the schema object only (no extra keys).
- Use ONLY facts found in the INPUT or the CONTEXT block. If evidence is insufficient, abstain with:
  {"abstained": true, "reasons": ["insufficient_evidence"]}.
- Do NOT include citations or commentary in the JSON; the caller tracks sources separately.
`

const systemExtractGrounded = `You are a careful extraction engine. Output strictly valid JSON matching the schema.
Rules:
- Use ONLY the provided CONTEXT and INPUT. Do not invent facts.
- If unsure or conflicting evidence, return: {"abstained": true, "reasons": ["insufficient_evidence" | "conflict"]}.
- If you extract, you MUST include citations referencing chunk IDs in the "citations" array.
- No commentary.
`

const userExtractTemplate = `Task: Extract fields for the schema: CompanySignals.
- Company must be a non-empty string if present in the evidence.
- Topics is a short list of relevant keywords (3-8).
- If unsure on any required field, abstain.

%s

### INPUT
%s
`

const userExtractGroundedTemplate = `Task: Extract fields for CompanySignals.

CONTEXT (each item = [tag] (doc=... chunk=... sha1=...) text):
%s

INPUT:
%s
`

// emptyContextBlock stands in when no context was retrieved or packed.
const emptyContextBlock = "### CONTEXT\n(none)"

func buildUserPrompt(contextBlock, payload string) string {
	if contextBlock == "" {
		contextBlock = emptyContextBlock
	}
	return fmt.Sprintf(userExtractTemplate, contextBlock, payload)
}

func buildGroundedUserPrompt(contextBlock, payload string) string {
	return fmt.Sprintf(userExtractGroundedTemplate, contextBlock, payload)
}
