package normalize

import (
	"errors"
	"strings"
	"time"
)

var errNoPointZero = errors.New(`missing ".0" suffix`)

// DatePattern is one entry of the ordered date policy, named by its
// strptime spelling.
type DatePattern struct {
	Pattern string
	parse   func(string) (time.Time, error)
}

func layout(pattern, goLayout string) DatePattern {
	return DatePattern{Pattern: pattern, parse: func(v string) (time.Time, error) {
		return time.Parse(goLayout, v)
	}}
}

// DatePatterns is walked top to bottom and the first successful parse wins.
// The order is a contract: unambiguous and day-first forms precede the
// month-first form, and "%Y-%d-%m" keeps its position after the ISO variants.
var DatePatterns = []DatePattern{
	layout("%Y-%m-%d", "2006-1-2"),
	layout("%Y%m%d", "20060102"),
	layout("%Y-%m-%dT%H:%M:%S.000Z", "2006-1-2T15:04:05.000Z"),
	layout("%Y-%m-%dT%H:%M:%SZ", "2006-1-2T15:04:05Z"),
	layout("%Y-%m-%dT%H:%M:%S", "2006-1-2T15:04:05"),
	layout("%Y-%m-%d %H:%M:%S", "2006-1-2 15:04:05"),
	layout("%Y/%m/%d", "2006/1/2"),
	layout("%Y %m %d", "2006 1 2"),
	layout("%Y.%m.%d", "2006.1.2"),
	layout("%Y-%d-%m", "2006-2-1"),
	layout("%Y", "2006"),
	{Pattern: "%Y.0", parse: parseYearPointZero},
	layout("%d/%m/%Y %H:%M:%S", "2/1/2006 15:04:05"),
	layout("%d/%m/%Y %H:%M", "2/1/2006 15:04"),
	layout("%d-%m-%Y", "2-1-2006"),
	layout("%d-%m-%y", "2-1-06"),
	layout("%d.%m.%Y", "2.1.2006"),
	layout("%d.%m.%y", "2.1.06"),
	layout("%d/%m/%Y", "2/1/2006"),
	layout("%d/%m/%y", "2/1/06"),
	layout("%d-%b-%Y", "2-Jan-2006"),
	layout("%d-%b-%y", "2-Jan-06"),
	layout("%d %B %Y", "2 January 2006"),
	layout("%b %d, %Y", "Jan 2, 2006"),
	layout("%b %d, %y", "Jan 2, 06"),
	layout("%b-%y", "Jan-06"),
	layout("%m/%d/%Y", "1/2/2006"),
}

// parseYearPointZero handles years exported from spreadsheets as floats.
// A Go layout of "2006.0" would read the suffix as fractional seconds.
func parseYearPointZero(v string) (time.Time, error) {
	year, ok := strings.CutSuffix(v, ".0")
	if !ok {
		return time.Time{}, errNoPointZero
	}
	return time.Parse("2006", year)
}

// Date returns value as YYYY-MM-DD using the first matching pattern.
func Date(value string) (string, bool) {
	value = strings.Trim(value, ` ",`)
	for _, p := range DatePatterns {
		t, err := p.parse(value)
		if err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
