// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/audit"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/index"
	"github.com/poiesic/groundwork/pack"
	"github.com/poiesic/groundwork/search"
)

const (
	// DefaultThreshold is the anomaly score at which an answer is
	// rejected as insufficiently grounded.
	DefaultThreshold = 0.8

	// Payload truncation limits for the user prompt.
	maxPayloadChars         = 8000
	maxGroundedPayloadChars = 4000

	// groundednessWindow bounds how much payload feeds the
	// groundedness evaluation alongside the model output.
	groundednessWindow = 2000

	// seedWindow bounds how much payload feeds the deterministic seed.
	seedWindow = 1024

	auditEventName = "extract.company_signals"
)

// Envelope is the extractor's terminal state: either validated signals
// with resolved citations, or an abstention with reasons. A non-nil
// Envelope with OK=false always carries a non-nil Abstain.
type Envelope struct {
	OK        bool
	Model     string
	Usage     core.TokenUsage
	Data      *core.CompanySignals
	Abstain   *core.Abstention
	Contexts  []core.PackedContext
	Citations []core.Citation
	LatencyMS float64
}

// Extractor runs the guarded extraction pipeline: budget check, one
// seeded LLM call, strict JSON parse, schema validation, groundedness
// evaluation, and (for grounded runs) citation checks. Every terminal
// state emits an audit event; the raw payload never reaches the audit
// trail.
type Extractor struct {
	chat      ai.ChatModel
	retriever *search.Retriever
	packer    *pack.Packer
	ix        *index.Index
	budget    ai.TokenBudget
	auditor   *audit.Auditor

	model         string
	fallbackModel string
	threshold     float64
	topK          int
	minScore      float64
	logger        *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetrieval wires a retriever, packer, and index so extractions can
// be grounded in indexed evidence. The index is also used to resolve
// the model's citations.
func WithRetrieval(retriever *search.Retriever, packer *pack.Packer, ix *index.Index) Option {
	return func(e *Extractor) {
		e.retriever = retriever
		e.packer = packer
		e.ix = ix
	}
}

// WithBudget installs a token budget consulted before every LLM call.
func WithBudget(budget ai.TokenBudget) Option {
	return func(e *Extractor) { e.budget = budget }
}

// WithAuditor installs an auditor that receives one event per terminal
// state.
func WithAuditor(auditor *audit.Auditor) Option {
	return func(e *Extractor) { e.auditor = auditor }
}

// WithModel sets the model requested for extraction calls.
func WithModel(model string) Option {
	return func(e *Extractor) { e.model = model }
}

// WithFallbackModel sets the cheaper model used once the budget's soft
// ceiling is crossed.
func WithFallbackModel(model string) Option {
	return func(e *Extractor) { e.fallbackModel = model }
}

// WithThreshold overrides the groundedness rejection threshold.
func WithThreshold(threshold float64) Option {
	return func(e *Extractor) { e.threshold = threshold }
}

// WithTopK sets how many context chunks are retrieved per extraction.
func WithTopK(k int) Option {
	return func(e *Extractor) { e.topK = k }
}

// WithMinScore sets the similarity floor for retrieved context.
func WithMinScore(minScore float64) Option {
	return func(e *Extractor) { e.minScore = minScore }
}

// WithLogger sets the extractor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor around a chat model.
func New(chat ai.ChatModel, opts ...Option) (*Extractor, error) {
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	e := &Extractor{
		chat:      chat,
		threshold: DefaultThreshold,
		topK:      search.DefaultTopK,
		minScore:  search.DefaultMinScore,
		logger:    slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs the pipeline with optional grounding: when retrieval is
// configured, retrieved context is packed into the prompt and feeds the
// groundedness evaluation, but citations are not required.
func (e *Extractor) Extract(ctx context.Context, payload string) (*Envelope, error) {
	return e.run(ctx, payload, false)
}

// ExtractGrounded runs the pipeline with mandatory grounding: no
// context means abstention, the extracted entity must appear in the
// context, and the model must cite the chunks it used.
func (e *Extractor) ExtractGrounded(ctx context.Context, payload string) (*Envelope, error) {
	if e.retriever == nil || e.packer == nil || e.ix == nil {
		return nil, ErrRetrievalRequired
	}
	return e.run(ctx, payload, true)
}

func (e *Extractor) run(ctx context.Context, payload string, grounded bool) (*Envelope, error) {
	start := time.Now()

	// Retrieve and pack context. For grounded runs an empty context is
	// terminal; otherwise the prompt just carries an empty block.
	var block string
	var packed []core.PackedContext
	if e.retriever != nil && e.packer != nil {
		items, err := e.retriever.Retrieve(ctx, payload, e.topK, e.minScore, nil)
		if err != nil {
			return nil, err
		}
		block, packed = e.packer.Pack(items)
	}
	if grounded && len(packed) == 0 {
		return e.abstain(payload, e.model, core.TokenUsage{}, packed, start, core.ReasonNoContext), nil
	}

	var system, user string
	if grounded {
		system = systemExtractGrounded
		user = buildGroundedUserPrompt(block, truncate(payload, maxGroundedPayloadChars))
	} else {
		system = systemExtract
		user = buildUserPrompt(block, truncate(payload, maxPayloadChars))
	}

	// Budget gate: refuse before spending, downgrade past the soft cap.
	model := e.model
	if e.budget != nil {
		estimate := llms.CountTokens(model, system+user)
		if !e.budget.CanSpend(estimate) {
			return e.abstain(payload, model, core.TokenUsage{}, packed, start, core.ReasonTokenHardCap), nil
		}
		if e.budget.OverSoft() && e.fallbackModel != "" {
			e.logger.Info("soft token cap crossed, downgrading model",
				"from", model, "to", e.fallbackModel)
			model = e.fallbackModel
		}
	}

	resp, err := e.chat.Complete(ctx, ai.ChatRequest{
		System: system,
		User:   user,
		Seed:   deterministicSeed(payload),
		Model:  model,
	})
	if err != nil {
		return nil, err
	}
	if resp.Model != "" {
		model = resp.Model
	}
	usage := resp.Usage

	content := stripFences(resp.Content)
	if content == "" {
		content = "{}"
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		e.logger.Warn("model output is not valid JSON", "error", err)
		return e.abstain(payload, model, usage, packed, start, core.ReasonInvalidJSON), nil
	}

	// The model may abstain on its own; pass that through untouched
	// except for guaranteeing at least one reason.
	if declared, _ := obj["abstained"].(bool); declared {
		reasons := stringSlice(obj["reasons"])
		if len(reasons) == 0 {
			reasons = []string{core.ReasonInsufficientEvidence}
		}
		return e.abstain(payload, model, usage, packed, start, reasons...), nil
	}

	var data core.CompanySignals
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		e.logger.Warn("model output does not fit the signals schema", "error", err)
		return e.abstain(payload, model, usage, packed, start, core.ReasonSchemaValidation), nil
	}
	if fieldErrs := core.SignalsErrors(&data); len(fieldErrs) > 0 {
		e.logger.Warn("signals failed validation", "errors", fieldErrs)
		return e.abstain(payload, model, usage, packed, start, core.ReasonSchemaValidation), nil
	}

	// Groundedness gate. The evaluated text is a window of the payload
	// plus the model's own output; the extracted company is the anchor
	// that must appear somewhere in the evidence.
	var anchors []string
	if data.Company != "" {
		anchors = []string{data.Company}
	}
	score, reasons := EvaluateGroundedness(
		truncate(payload, groundednessWindow)+" "+content,
		anchors,
		packedTexts(packed),
	)
	if score >= e.threshold {
		all := append([]string{core.ReasonLowGroundedness}, reasons...)
		return e.abstain(payload, model, usage, packed, start, all...), nil
	}

	if grounded {
		if abstained := e.citationGate(payload, model, usage, packed, start, &data); abstained != nil {
			return abstained, nil
		}
	}

	env := &Envelope{
		OK:        true,
		Model:     model,
		Usage:     usage,
		Data:      &data,
		Contexts:  packed,
		Citations: resolveCitations(data.Citations, e.ix),
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	e.audit(payload, env)
	return env, nil
}

// citationGate enforces the two grounded-only checks: the extracted
// entity must be visible in at least one packed context, and the model
// must have cited its sources. Returns a terminal envelope on failure,
// nil when both hold.
func (e *Extractor) citationGate(payload, model string, usage core.TokenUsage, packed []core.PackedContext, start time.Time, data *core.CompanySignals) *Envelope {
	nameOK := false
	needle := strings.ToLower(data.Company)
	for _, p := range packed {
		if strings.Contains(strings.ToLower(p.Text), needle) {
			nameOK = true
			break
		}
	}
	citesOK := len(data.Citations) > 0

	if nameOK && citesOK {
		return nil
	}

	var reasons []string
	if !nameOK {
		reasons = append(reasons, core.ReasonEntityNotInContext)
	}
	if !citesOK {
		reasons = append(reasons, core.ReasonMissingCitations)
	}
	return e.abstain(payload, model, usage, packed, start, reasons...)
}

func (e *Extractor) abstain(payload, model string, usage core.TokenUsage, packed []core.PackedContext, start time.Time, reasons ...string) *Envelope {
	env := &Envelope{
		Model:     model,
		Usage:     usage,
		Abstain:   core.Abstain(reasons...),
		Contexts:  packed,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	e.audit(payload, env)
	return env
}

func (e *Extractor) audit(payload string, env *Envelope) {
	if e.auditor == nil {
		return
	}
	event := audit.Event{
		Name:    auditEventName,
		SrcHash: audit.HashInput(payload),
		OK:      env.OK,
		Model:   env.Model,
		Usage:   env.Usage,
	}
	if env.Abstain != nil {
		event.Abstained = true
		event.Reasons = env.Abstain.Reasons
	}
	if env.Data != nil {
		event.Keys = signalKeys(env.Data)
	}
	e.auditor.Emit(event)
}

// signalKeys lists the populated fields of the extracted signals, so
// audit events describe shape without content.
func signalKeys(data *core.CompanySignals) []string {
	keys := []string{"company"}
	if data.Website != "" {
		keys = append(keys, "website")
	}
	if len(data.Topics) > 0 {
		keys = append(keys, "topics")
	}
	if len(data.Citations) > 0 {
		keys = append(keys, "citations")
	}
	return keys
}

// deterministicSeed derives a reproducible seed from the leading bytes
// of the payload, so repeated extractions of the same input hit the
// provider with the same seed.
func deterministicSeed(payload string) int {
	if len(payload) > seedWindow {
		payload = payload[:seedWindow]
	}
	sum := sha256.Sum256([]byte(payload))
	head := hex.EncodeToString(sum[:])[:8]
	seed, err := strconv.ParseUint(head, 16, 64)
	if err != nil {
		return 0
	}
	return int(seed)
}

// stripFences removes a markdown code fence wrapper if the model added
// one despite JSON mode.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func packedTexts(packed []core.PackedContext) []string {
	texts := make([]string, len(packed))
	for i, p := range packed {
		texts[i] = p.Text
	}
	return texts
}
