// Package compare scores extracted text against an expectation under a
// closed set of comparison modes: exact, fuzzy, containment, structural
// JSON equality, and LLM-judged semantic similarity. Every comparison
// terminates in a well-formed Result; errors are captured in the record,
// never raised past Compare.
package compare
