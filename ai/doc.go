// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI capabilities consumed by the
// retrieval and extraction pipeline.
//
// The package defines the interfaces the core depends on, following the
// dependency inversion principle so business logic never couples to a
// concrete provider:
//
//   - Embedder: text to fixed-dimension vectors
//   - ChatModel: system+user prompt to raw completion content plus usage
//   - TokenBudget: optional external spend gate (nil means unlimited)
//   - Redactor: deterministic PII masking
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; mock constructors return concrete types so tests can inject
// behavior and assert on call counts.
//
// # Call Guarding
//
// GuardedModel decorates any ChatModel with a local token-bucket rate
// limiter and bounded exponential-backoff retry for transient failures.
// The core pipeline never retries on its own; wrap the model before
// handing it to the extractor when retry semantics are wanted:
//
//	model, _ := openai.NewChatModel(cfg)
//	guarded, _ := ai.NewGuardedModel(model, ai.WithRateLimit(5, 5))
package ai
