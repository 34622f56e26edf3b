// Package displayname derives the single label and avatar initial shown for a
// user. Stored usernames and names sometimes contain an accidentally doubled
// value ("Ivan Ivan", "Ivan'Ivan"); Dedupe repairs that on the way out.
package displayname

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Subject is the part of a user the normalizer reads.
type Subject struct {
	Username string
	Name     string
	Email    string
}

// DisplayName returns "@username" when the user has a username, otherwise the
// email verbatim. Name is never used.
func DisplayName(s Subject) string {
	if u := stripAt(s.Username); u != "" {
		return "@" + Dedupe(u)
	}
	return s.Email
}

// Initial returns the upper-cased first character of the username, name or
// email, whichever is set first.
func Initial(s Subject) string {
	for _, v := range []string{stripAt(s.Username), strings.TrimSpace(s.Name), strings.TrimSpace(s.Email)} {
		if r, _ := utf8.DecodeRuneInString(v); r != utf8.RuneError {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}

// CleanName is Dedupe for free-text names pre-filled into an edit form. It
// returns "" for blank input.
func CleanName(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return Dedupe(name)
}

// Dedupe collapses a value that was entered twice. If the two halves of s
// match after normalization, only the first half is kept; then every token
// after its first case-insensitive occurrence is dropped. Kept tokens retain
// their casing and the separator that preceded them. It is a heuristic:
// intentionally repeated words are collapsed as well.
func Dedupe(s string) string {
	trimmed := strings.TrimSpace(s)
	work := collapseHalves(trimmed)

	var b strings.Builder
	seen := make(map[string]bool)
	for _, tok := range tokenize(work) {
		key := normalize(tok.text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if b.Len() > 0 {
			b.WriteString(tok.sep)
		}
		b.WriteString(tok.text)
	}

	if b.Len() == 0 {
		return stripAt(trimmed)
	}
	return b.String()
}

func collapseHalves(s string) string {
	runes := []rune(s)
	mid := len(runes) / 2
	first := strings.TrimSpace(string(runes[:mid]))
	second := strings.TrimSpace(string(runes[mid:]))

	nf, ns := normalize(first), normalize(second)
	if nf == "" || ns == "" {
		return s
	}
	if nf == ns || strings.HasPrefix(ns, nf) || strings.HasPrefix(nf, ns) {
		return first
	}
	return s
}

type token struct {
	sep  string
	text string
}

// tokenize splits s on whitespace, hyphens and underscores. Each token records
// the separator run before it, with whitespace runs collapsed to one space.
func tokenize(s string) []token {
	var tokens []token
	var sep, cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, token{sep: sep.String(), text: cur.String()})
			sep.Reset()
			cur.Reset()
		}
	}
	for _, r := range s {
		if isSeparator(r) {
			flush()
			if unicode.IsSpace(r) {
				if !strings.HasSuffix(sep.String(), " ") {
					sep.WriteByte(' ')
				}
			} else {
				sep.WriteRune(r)
			}
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_'
}

// normalize lower-cases s and drops quotes, @, whitespace, hyphens and
// underscores.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '"' || r == '`' || r == '@':
			return -1
		case isSeparator(r):
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func stripAt(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "@")
}
