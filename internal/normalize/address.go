package normalize

import (
	"regexp"
	"strings"

	"harmonise/internal/util"
)

var (
	addressCommas  = regexp.MustCompile(`(\s*,\s*)+`)
	addressHyphens = regexp.MustCompile(`(\s*-\s*)+`)
	addressQuotes  = strings.NewReplacer(`"`, "", "“", "", "”", "")
)

// Address tidies a free-text postal address. It never fails.
func Address(value string) string {
	value = strings.Join(strings.Split(value, "\n"), ", ")
	value = strings.ReplaceAll(value, ";", ",")
	value = addressCommas.ReplaceAllString(value, ", ")
	value = strings.Trim(value, ", ")
	value = addressHyphens.ReplaceAllString(value, "-")
	return addressQuotes.Replace(util.CollapseSpaces(value))
}
