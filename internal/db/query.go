package db

import (
	"strings"
)

// TagMatch restricts a TAG field to any of Values. Matches are ANDed together.
type TagMatch struct {
	Field  string
	Values []string
}

// BuildQuery renders tag matches as an FT.SEARCH pre-filter.
// No usable match yields the match-all query "*".
func BuildQuery(matches []TagMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		values := make([]string, 0, len(m.Values))
		for _, v := range m.Values {
			if v == "" {
				continue
			}
			values = append(values, EscapeTag(v))
		}
		if m.Field == "" || len(values) == 0 {
			continue
		}
		parts = append(parts, "@"+m.Field+":{"+strings.Join(values, " | ")+"}")
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// EscapeTag escapes TAG query punctuation.
func EscapeTag(v string) string {
	return tagEscaper.Replace(v)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
