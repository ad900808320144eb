// Package extract resolves path expressions against JSON documents and
// JSON-embedding text, such as LLM replies that wrap structured data in
// markdown code fences. The path grammar covers root ($), field access
// (.name), index access ([N]), a single array unwrap ([*]), and a nested
// re-extraction marker (.$) that re-parses the value addressed so far as a
// fresh JSON document.
package extract
