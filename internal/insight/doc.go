// Package insight turns aggregated metrics into stored recommendations.
//
// The configured LLM (Bedrock by default, OpenAI or Gemini) receives the
// dashboard as JSON and answers with a JSON list of insights. When no LLM is
// configured, or the call or its parsing fails, the rule engine produces a
// deterministic set instead.
package insight
