// Package analysis turns raw monitoring payloads into validated incident
// analyses. It holds the normalizer, the keyword and LLM-backed classifiers,
// target inference and the analysis validator, plus the Provider interface the
// LLM clients implement.
package analysis
