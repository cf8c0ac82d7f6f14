package core

// Zone is a redaction sensitivity tier. It controls how aggressively
// PII-like patterns are masked before text reaches the chunker, the
// embedder, or a prompt.
type Zone int

const (
	// ZoneGreen applies minimal masking (emails, phone numbers).
	ZoneGreen Zone = iota + 1
	// ZoneAmber adds labeled identifier masking (ssn/ein/tax/acct/iban/swift).
	ZoneAmber
	// ZoneRed adds geo-coordinate masking, salted hash placeholders and
	// collapsing of long hex/alphanumeric runs.
	ZoneRed
)

// String returns the lowercase zone name.
func (z Zone) String() string {
	switch z {
	case ZoneGreen:
		return "green"
	case ZoneAmber:
		return "amber"
	case ZoneRed:
		return "red"
	}
	return "unknown"
}

// Chunk is a bounded, content-addressed slice of ingested text.
// Chunks are immutable once created: the ID is derived from the SHA1 of
// the final (post-overlap) text, so identical input and chunking
// parameters always produce the same ID set.
type Chunk struct {
	ID   string
	Text string
	SHA1 string
}

// ChunkMeta locates a chunk within its source document.
type ChunkMeta struct {
	DocID    string
	ChunkIdx int
	SHA1     string
}

// Hit is a single vector-index search result.
type Hit struct {
	ID    string
	Score float64
	Text  string
	Meta  ChunkMeta
}

// ContextItem is a retrieval hit above the minimum-score threshold.
// It carries only the redacted chunk text and its citation handle, never
// the stored vector.
type ContextItem struct {
	Text     string
	Score    float64
	DocID    string
	ChunkIdx int
}

// PackedContext is a ContextItem after deterministic ordering and
// trimming, correlated to a line in the formatted prompt block via Tag
// (e.g. "C1").
type PackedContext struct {
	Tag      string  `json:"tag"`
	DocID    string  `json:"doc_id"`
	ChunkIdx int     `json:"chunk_idx"`
	SHA1     string  `json:"sha1"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// TokenUsage reports prompt and completion token counts for one chat call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// CompanySignals is the structured payload extracted from model output.
// It must pass ValidateSignals before being trusted.
type CompanySignals struct {
	Company   string   `json:"company"`
	Website   string   `json:"website,omitempty"`
	Topics    []string `json:"topics"`
	Citations []string `json:"citations"`
}

// Abstention is the uniform "no trustworthy answer" value. Reasons are
// machine-parseable tokens; an abstention with zero reasons is a bug.
type Abstention struct {
	Abstained bool     `json:"abstained"`
	Reasons   []string `json:"reasons"`
}

// Abstain builds an Abstention with the given reason codes.
func Abstain(reasons ...string) *Abstention {
	return &Abstention{Abstained: true, Reasons: reasons}
}

// Citation is a verifiable reference to an indexed chunk. It exposes
// only the chunk's location and content hash, never its text or vector.
type Citation struct {
	ChunkID  string `json:"chunk_id,omitempty"`
	DocID    string `json:"doc_id"`
	ChunkIdx int    `json:"chunk_idx"`
	SHA1     string `json:"sha1"`
	Label    string `json:"label"`
}

// Answer is the sanitized domain payload exposed to callers.
type Answer struct {
	Company string   `json:"company,omitempty"`
	Website string   `json:"website,omitempty"`
	Topics  []string `json:"topics,omitempty"`
}

// AnswerMeta carries usage and timing metadata for an answer.
type AnswerMeta struct {
	Model        string     `json:"model"`
	Usage        TokenUsage `json:"usage"`
	LatencyMS    float64    `json:"latency_ms,omitempty"`
	ContextCount int        `json:"ctx_count"`
}

// AnswerEnvelope is the externally visible result of an extraction:
// either a validated answer with resolved citations, or an abstention
// with at least one machine-readable reason.
type AnswerEnvelope struct {
	OK        bool       `json:"ok"`
	Answer    *Answer    `json:"answer,omitempty"`
	Abstained bool       `json:"abstained"`
	Reasons   []string   `json:"reasons,omitempty"`
	Citations []Citation `json:"citations"`
	Meta      AnswerMeta `json:"meta"`
}

// Abstention reason codes shared across the extraction pipeline.
const (
	ReasonTokenHardCap       = "token_hard_cap"
	ReasonInvalidJSON        = "invalid_json"
	ReasonSchemaValidation   = "schema_validation_failed"
	ReasonLowGroundedness    = "low_groundedness"
	ReasonAbsoluteClaim      = "absolute_claim"
	ReasonNoContext          = "no_context"
	ReasonEntityNotInContext = "entity_not_in_context"
	ReasonMissingCitations   = "missing_citations"
	ReasonExtractFailed      = "extract_failed"

	// Reasons a model may declare itself when it abstains explicitly.
	ReasonInsufficientEvidence = "insufficient_evidence"
	ReasonConflict             = "conflict"
)
