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


// Package redact provides Unicode normalization and zone-based PII masking.
//
// Text entering the pipeline is first canonicalized with Normalize and then
// passed through a Redactor bound to one of three sensitivity zones:
//
//   - GREEN masks email and phone patterns with fixed placeholders.
//   - AMBER additionally masks labeled identifiers (ssn, ein, tax, acct,
//     iban, swift).
//   - RED additionally masks geo coordinates, replaces email/phone values
//     with salted hash placeholders, and collapses 8+ character hex runs
//     into a generic token placeholder.
//
// Redaction is deterministic: the same text, zone and salt always produce
// the same output. Queries are redacted with the same zone and salt as the
// corpus so both sides are comparably sanitized.
package redact
