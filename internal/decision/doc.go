// Package decision implements the eligibility decision engine: the
// per-identifier evaluation state machine, reason extraction and
// enrichment, the batch orchestrator, and the Service boundary that
// runs clarification detection before any evaluation.
package decision
