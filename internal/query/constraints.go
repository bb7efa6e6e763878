package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gamedex/gamedex/pkg/games"
)

// constraints is the result of deterministic phrase extraction.
type constraints struct {
	minPrice *float64
	maxPrice *float64
	from     *time.Time
	to       *time.Time
}

var (
	reBetweenYears = regexp.MustCompile(`(?i)\bbetween\s*(\d{4})\s*and\s*(\d{4})\b`)
	reBetweenPrice = regexp.MustCompile(`(?i)\bbetween\s*\$?(\d+(?:\.\d+)?)\s*and\s*\$?(\d+(?:\.\d+)?)\b`)
	reMaxPrice     = regexp.MustCompile(`(?i)\b(?:under|below|less than)\s*\$?(\d+(?:\.\d+)?)\b`)
	reMinPrice     = regexp.MustCompile(`(?i)\b(?:over|above|more than)\s*\$?(\d+(?:\.\d+)?)\b`)
	reAfterYear    = regexp.MustCompile(`(?i)\b(?:after|since)\s*(\d{4})\b`)
	reBeforeYear   = regexp.MustCompile(`(?i)\b(?:before|earlier than)\s*(\d{4})\b`)
)

// extractConstraints pulls price and release-year bounds out of free text.
//
// Two-sided "between" phrases are extracted first and their text blanked,
// so a one-sided phrase elsewhere in the query cannot clobber both bounds
// it set. Within each pattern the last match wins. A "between N and N"
// with two plausible years and no dollar signs is a date range, not a
// price range.
func extractConstraints(text string) constraints {
	var c constraints

	text = reBetweenYears.ReplaceAllStringFunc(text, func(m string) string {
		groups := reBetweenYears.FindStringSubmatch(m)
		fromYear, _ := strconv.Atoi(groups[1])
		toYear, _ := strconv.Atoi(groups[2])
		if !plausibleYear(fromYear) || !plausibleYear(toYear) || strings.Contains(m, "$") {
			return m
		}
		c.from = games.Date(fromYear, time.January, 1)
		c.to = games.Date(toYear, time.December, 31)
		return ""
	})

	text = reBetweenPrice.ReplaceAllStringFunc(text, func(m string) string {
		groups := reBetweenPrice.FindStringSubmatch(m)
		lo, _ := strconv.ParseFloat(groups[1], 64)
		hi, _ := strconv.ParseFloat(groups[2], 64)
		c.minPrice = &lo
		c.maxPrice = &hi
		return ""
	})

	if m := lastSubmatch(reMaxPrice, text); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		c.maxPrice = &v
	}
	if m := lastSubmatch(reMinPrice, text); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		c.minPrice = &v
	}
	if m := lastSubmatch(reAfterYear, text); m != "" {
		year, _ := strconv.Atoi(m)
		c.from = games.Date(year, time.January, 1)
	}
	if m := lastSubmatch(reBeforeYear, text); m != "" {
		year, _ := strconv.Atoi(m)
		c.to = games.Date(year-1, time.December, 31)
	}

	return c
}

// lastSubmatch returns the first capture group of the final match, or "".
func lastSubmatch(re *regexp.Regexp, text string) string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// plausibleYear bounds what a four digit number may mean as a release year.
func plausibleYear(y int) bool {
	return y >= 1950 && y <= 2100
}
