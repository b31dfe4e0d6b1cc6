package media

import "strings"

// Rewrite substitutes each token in tokens, in order, with its URL from urls.
// Tokens are expected in document order: each one replaces the first
// occurrence after the previous substitution, so inserted URLs are never
// rewritten again and a token listed twice rewrites two references. Tokens
// without a URL are skipped.
func Rewrite(markdown string, tokens []string, urls map[string]string) string {
	var out strings.Builder
	out.Grow(len(markdown))

	rest := markdown
	for _, token := range tokens {
		target, ok := urls[token]
		if !ok || token == "" {
			continue
		}
		idx := strings.Index(rest, token)
		if idx < 0 {
			continue
		}
		out.WriteString(rest[:idx])
		out.WriteString(target)
		rest = rest[idx+len(token):]
	}
	out.WriteString(rest)
	return out.String()
}
