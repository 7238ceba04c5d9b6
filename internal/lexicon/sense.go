package lexicon

import "strings"

// SenseName builds the synthetic identifier for one meaning of a word:
// "!category/word" or "!category/word/tail".
func SenseName(category, word string, tail ...string) string {
	var b strings.Builder
	b.WriteByte('!')
	b.WriteString(category)
	b.WriteByte('/')
	b.WriteString(word)
	for _, t := range tail {
		if t == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(t)
	}
	return b.String()
}

// ParseSenseName splits a sense name. The tail keeps any further slashes.
func ParseSenseName(s string) (category, word, tail string, ok bool) {
	if !strings.HasPrefix(s, "!") {
		return "", "", "", false
	}
	parts := strings.SplitN(s[1:], "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		tail = parts[2]
	}
	return parts[0], parts[1], tail, true
}
