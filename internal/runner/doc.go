// Package runner executes test suites against LLM providers and HTTP
// endpoints. Individual case failures are folded into their result
// records; a batch run always yields one result per input case, in
// input order.
package runner
