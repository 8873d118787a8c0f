package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"DiscountScanner/internal/domain"
)

// expiryMarker separates the period start from its end in Dutch promotion
// texts, e.g. "Geldig van ma 6 mei t/m zo 14 mei".
const expiryMarker = "t/m"

var expiryExpr = regexp.MustCompile(`(\d{1,2})\s+(januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december)`)

var dutchMonths = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"maart":     time.March,
	"april":     time.April,
	"mei":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augustus":  time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseExpiry extracts the promotion end date from free-form period text.
// The fragment after the "t/m" marker is matched against a
// "<day> <dutch month>" pattern; when the marker is absent the whole text
// is tried and markerFound reports false so the caller can warn. No match
// at all is fatal for the run: scheduling needs a real date.
//
// The year is taken from the clock; a resolved date more than half a year
// in the past is assumed to belong to the next calendar year.
func ParseExpiry(raw string, now time.Time) (expiresOn time.Time, markerFound bool, err error) {
	fragment := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(fragment, expiryMarker); idx >= 0 {
		markerFound = true
		fragment = fragment[idx+len(expiryMarker):]
	}

	match := expiryExpr.FindStringSubmatch(fragment)
	if match == nil {
		return time.Time{}, markerFound, fmt.Errorf("%w: no date in %q", domain.ErrExpiryParse, raw)
	}

	day, convErr := strconv.Atoi(match[1])
	if convErr != nil || day < 1 || day > 31 {
		return time.Time{}, markerFound, fmt.Errorf("%w: bad day in %q", domain.ErrExpiryParse, raw)
	}
	month := dutchMonths[match[2]]

	expiresOn = time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if now.Sub(expiresOn) > 182*24*time.Hour {
		expiresOn = expiresOn.AddDate(1, 0, 0)
	}

	return expiresOn, markerFound, nil
}
