package redact

import "regexp"

// Placeholder tokens. These replace matches globally and are themselves inert
// under every rule, which keeps redaction idempotent.
const (
	PlaceholderAPIKey     = "[REDACTED_API_KEY]"
	PlaceholderCloudKey   = "[REDACTED_CLOUD_KEY]"
	PlaceholderEmail      = "[REDACTED_EMAIL]"
	PlaceholderPrivateKey = "[REDACTED_PRIVATE_KEY]"
	PlaceholderBearer     = "[REDACTED_BEARER_TOKEN]"
	PlaceholderSecret     = "[REDACTED_SECRET]"
	PlaceholderPassword   = "[REDACTED_PASSWORD]"
)

// builtinRules returns the builtin pattern set in application order. The set
// favors false positives over false negatives: better to redact too much than
// to let a real secret reach the embedding service.
func builtinRules() []rule {
	return []rule{
		// Provider API keys by prefix
		{regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-]{20,}`), PlaceholderAPIKey}, // Anthropic
		{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), PlaceholderAPIKey},       // OpenAI
		{regexp.MustCompile(`AIza[a-zA-Z0-9\-_]{35}`), PlaceholderAPIKey},    // Google API
		{regexp.MustCompile(`gh[po]_[a-zA-Z0-9]{36}`), PlaceholderAPIKey},    // GitHub PAT/OAuth
		{regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`), PlaceholderAPIKey},
		{regexp.MustCompile(`xox[bpsa]-[a-zA-Z0-9\-]{10,}`), PlaceholderAPIKey},          // Slack
		{regexp.MustCompile(`(?:sk|rk)_(?:live|test)_[a-zA-Z0-9]{24,}`), PlaceholderAPIKey}, // Stripe

		// Cloud credentials
		{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), PlaceholderCloudKey}, // AWS access key
		{regexp.MustCompile(`ya29\.[a-zA-Z0-9_\-]{50,}`), PlaceholderCloudKey},
		{regexp.MustCompile(`(?i)(?:postgres|mysql|mongodb|redis)://\S+@\S+`), PlaceholderCloudKey},

		// PEM private key blocks
		{regexp.MustCompile(`-{5}BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-{5}(?s:.*?)-{5}END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-{5}`), PlaceholderPrivateKey},
		{regexp.MustCompile(`-{5}BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-{5}`), PlaceholderPrivateKey},

		// Bearer tokens and JWTs
		{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]{20,}`), PlaceholderBearer},
		{regexp.MustCompile(`eyJ[a-zA-Z0-9_\-]{10,}\.eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]*`), PlaceholderBearer},

		// Email addresses
		{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), PlaceholderEmail},

		// Generic secret assignments
		{regexp.MustCompile(`(?i)(?:api[_-]?key|api[_-]?secret|access[_-]?token|secret[_-]?key|private[_-]?key|auth[_-]?token)\s*[:=]\s*["']?[a-zA-Z0-9\-_.]{16,}["']?`), PlaceholderSecret},

		// Password assignments
		{regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`), PlaceholderPassword},
	}
}
