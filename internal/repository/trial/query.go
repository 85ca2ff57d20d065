package trial

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// listQuery composes the AND of all set list predicates. Status, condition and
// sponsor are case-insensitive substring matches over suffix-trie TAG fields;
// phase and hasResults are exact.
func listQuery(f trial.ListFilter) string {
	if f.IsEmpty() {
		return "*"
	}

	var parts []string
	if f.Status != "" {
		parts = append(parts, containsFilter(fieldStatus, f.Status))
	}
	if f.Phase != "" {
		parts = append(parts, tagFilter(fieldPhase, f.Phase))
	}
	if f.Condition != "" {
		parts = append(parts, containsFilter(fieldConditions, f.Condition))
	}
	if f.Sponsor != "" {
		parts = append(parts, containsFilter(fieldSponsor, f.Sponsor))
	}
	if f.HasResults != nil {
		parts = append(parts, tagFilter(fieldHasResults, strconv.FormatBool(*f.HasResults)))
	}
	return strings.Join(parts, " ")
}

func tagFilter(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(value))
}

func containsFilter(field, value string) string {
	return fmt.Sprintf("@%s:{*%s*}", field, tagEscaper.Replace(value))
}

func missingFilter(field string) string {
	return fmt.Sprintf("ismissing(@%s)", field)
}

// textQuery turns free text into an OR of its terms over every TEXT field.
// It returns "" when q holds no searchable term.
func textQuery(q string) string {
	terms := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return ""
	}
	return strings.Join(terms, " | ")
}

// geoQuery matches trials with a located site within radiusKm of (lat, lng).
func geoQuery(lat, lng, radiusKm float64) string {
	return fmt.Sprintf("@%s:[%s %s %s km]", fieldGeo,
		strconv.FormatFloat(lng, 'f', -1, 64),
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(radiusKm, 'f', -1, 64))
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
