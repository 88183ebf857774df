package validators

import (
	"net/http"
)

const maxKeywordLength = 100

// ParseKeyword reads the optional catalogue search term.
func ParseKeyword(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("keyword"), maxKeywordLength)
}
