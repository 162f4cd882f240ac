// Package openai implements the ai interfaces against OpenAI-compatible
// APIs via langchaingo. It works with hosted OpenAI as well as local
// servers like Ollama, LocalAI, and vLLM.
package openai
