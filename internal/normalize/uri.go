package normalize

import (
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"

	"harmonise/internal/util"
)

// URLValidator decides whether a whitespace-free string is a usable URL.
type URLValidator interface {
	ValidURL(string) bool
}

// URLValidatorFunc adapts a plain function to URLValidator.
type URLValidatorFunc func(string) bool

func (f URLValidatorFunc) ValidURL(s string) bool { return f(s) }

var urlSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ftp":   {},
	"ftps":  {},
}

// DefaultURLValidator requires an absolute URL with a known scheme and host.
var DefaultURLValidator URLValidator = URLValidatorFunc(func(s string) bool {
	if !govalidator.IsURL(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if _, ok := urlSchemes[strings.ToLower(u.Scheme)]; !ok {
		return false
	}
	return u.Host != ""
})

// URI removes all whitespace and returns the result if v accepts it.
func URI(value string, v URLValidator) (string, bool) {
	uri := util.RemoveWhitespace(value)
	if !v.ValidURL(uri) {
		return "", false
	}
	return uri, true
}
