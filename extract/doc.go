// Package extract turns raw text into validated, cited company signals
// through a fixed pipeline: budget check, one seeded LLM call in JSON
// mode, strict parse, schema validation, groundedness evaluation, and
// for grounded runs a citation gate. Any failed stage produces an
// abstention with machine-parseable reasons instead of a degraded
// answer.
package extract
