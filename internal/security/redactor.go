package security

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Redactor masks secrets in text before it is persisted to audit or run logs.
type Redactor struct {
	// keyed patterns capture a label in group 1 and the secret in group 2.
	keyed    []*regexp.Regexp
	bare     []*regexp.Regexp
	safe     map[string]bool
	keyNames map[string]bool
}

// NewRedactor returns a redactor with patterns for the credentials this
// tool handles: provider API keys, bearer tokens and private keys.
func NewRedactor() *Redactor {
	return &Redactor{
		keyed: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?token|auth[_-]?token|secret|password)\s*[:=]\s*["']?([a-zA-Z0-9_\-\.]{8,})["']?`),
		},
		bare: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9_\-\.]{10,256}`),
			regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
			regexp.MustCompile(`gh[pous]_[a-zA-Z0-9]{36}`),
			regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
			regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.(?:eyJ[a-zA-Z0-9_-]+)?\.[a-zA-Z0-9_-]{20,}`),
			regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]+?-----END [A-Z ]*PRIVATE KEY-----`),
		},
		safe: map[string]bool{
			"true": true, "false": true, "null": true,
			"example": true, "placeholder": true, "changeme": true,
		},
		keyNames: map[string]bool{
			"password": true, "secret": true, "token": true,
			"api_key": true, "apikey": true, "gemini_key": true,
			"credentials": true, "auth": true,
		},
	}
}

// Redact masks every detected secret in text.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return ""
	}

	for _, re := range r.keyed {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			subs := re.FindStringSubmatch(match)
			if len(subs) < 3 || r.safe[strings.ToLower(subs[2])] {
				return match
			}
			idx := strings.LastIndex(match, subs[2])
			return match[:idx] + redacted + match[idx+len(subs[2]):]
		})
	}
	for _, re := range r.bare {
		text = re.ReplaceAllString(text, redacted)
	}
	return text
}

// RedactArgs returns a copy of args with sensitive keys replaced and string
// values scrubbed. Nested maps are handled recursively.
func (r *Redactor) RedactArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if r.keyNames[strings.ToLower(k)] {
			out[k] = redacted
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = r.Redact(val)
		case map[string]any:
			out[k] = r.RedactArgs(val)
		default:
			out[k] = v
		}
	}
	return out
}
