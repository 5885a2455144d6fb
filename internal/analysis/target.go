package analysis

import (
	"regexp"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Known resources the execution backend can act on.
const (
	TargetAPI         = "api"
	TargetAuthService = "auth-service"
	TargetDatabase    = "database"
	TargetCache       = "cache"
)

// targetPatterns are checked in order; the most specific names come first so
// "auth-service" is not reported as "api" or "auth".
var targetPatterns = []struct {
	target string
	re     *regexp.Regexp
}{
	{TargetAuthService, regexp.MustCompile(`\b(auth[- ]?service|auth|authentication|login)\b`)},
	{TargetDatabase, regexp.MustCompile(`\b(database|db|postgres(ql)?|mysql|sql)\b`)},
	{TargetCache, regexp.MustCompile(`\b(cache|redis|memcached?)\b`)},
	{TargetAPI, regexp.MustCompile(`\b(api|gateway|endpoint)\b`)},
}

// InferTarget returns the first known resource mentioned in text (expected
// lowercase), or nil.
func InferTarget(text string) *string {
	for _, p := range targetPatterns {
		if p.re.MatchString(text) {
			return incident.Ptr(p.target)
		}
	}
	return nil
}
