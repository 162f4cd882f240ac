// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package redact scrubs sensitive substrings from text before it is chunked,
// embedded or sent to a chat service. No raw secret may leave the process.
package redact

import (
	"log/slog"
	"regexp"
)

// rule pairs a compiled pattern with its replacement placeholder.
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// CustomPattern is a user-supplied redaction rule. Invalid expressions are
// skipped at construction, never fatal.
type CustomPattern struct {
	Pattern     string
	Placeholder string
}

// Redactor applies the builtin rules followed by any custom rules, replacing
// every match with a fixed placeholder token. Redaction is idempotent: the
// placeholders themselves match no rule.
type Redactor struct {
	enabled bool
	rules   []rule
	logger  *slog.Logger
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Redactor) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// WithEnabled toggles redaction. When disabled, Redact passes text through
// untouched.
func WithEnabled(enabled bool) Option {
	return func(r *Redactor) {
		r.enabled = enabled
	}
}

// WithCustomPatterns appends user-supplied rules after the builtin ones.
// Patterns that fail to compile are logged and skipped.
func WithCustomPatterns(patterns []CustomPattern) Option {
	return func(r *Redactor) {
		for _, p := range patterns {
			compiled, err := regexp.Compile(p.Pattern)
			if err != nil {
				r.logger.Warn("skipping invalid custom redaction pattern", "pattern", p.Pattern, "err", err)
				continue
			}
			placeholder := p.Placeholder
			if placeholder == "" {
				placeholder = PlaceholderSecret
			}
			r.rules = append(r.rules, rule{pattern: compiled, placeholder: placeholder})
		}
	}
}

// New creates a redactor with the builtin rules enabled.
func New(opts ...Option) *Redactor {
	r := &Redactor{
		enabled: true,
		rules:   builtinRules(),
		logger:  slog.Default().With("component", "redactor"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact replaces all matches of every rule with the rule's placeholder.
func (r *Redactor) Redact(text string) string {
	if !r.enabled {
		return text
	}
	for _, rule := range r.rules {
		text = rule.pattern.ReplaceAllString(text, rule.placeholder)
	}
	return text
}
