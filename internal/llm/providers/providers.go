// Package providers registers every built-in LLM provider with the llm
// factory. Import it for side effects.
package providers

import (
	_ "lawnorm/internal/llm/claude" // registers "claude"
	_ "lawnorm/internal/llm/gemini" // registers "gemini"
	_ "lawnorm/internal/llm/openai" // registers "openai"
)
