package autofill

import (
	"regexp"
	"strings"
	"unicode"
)

// Name is a parsed recipient name
type Name struct {
	First         string
	MiddleInitial string
	Last          string
}

// ParseName splits a free-text full name. Two tokens become
// first/last; with three or more, the middle token contributes an
// uppercased initial and the remainder becomes the last name. An empty
// name parses to an all-empty Name; the carrier's "." last-name
// requirement is applied at fill time, not here.
func ParseName(full string) Name {
	tokens := strings.Fields(full)

	switch len(tokens) {
	case 0:
		return Name{}
	case 1:
		return Name{First: tokens[0]}
	case 2:
		return Name{First: tokens[0], Last: tokens[1]}
	default:
		return Name{
			First:         tokens[0],
			MiddleInitial: upperInitial(tokens[1]),
			Last:          strings.Join(tokens[2:], " "),
		}
	}
}

func upperInitial(token string) string {
	for _, r := range token {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// Confidence qualifies an address split. Low means a secondary-unit
// marker was seen but could not be cleanly separated, so the caller may
// want manual confirmation before trusting the split.
type Confidence int

const (
	ConfidenceHigh Confidence = iota
	ConfidenceLow
)

// AddressParts is a street address split into the primary street line
// and an optional apartment/suite/unit line.
type AddressParts struct {
	Primary    string
	Secondary  string
	Confidence Confidence
}

// secondaryPattern matches a trailing unit designator: a keyword or
// "#" followed by the unit token.
var secondaryPattern = regexp.MustCompile(
	`(?i)[,\s]+((?:apartment|apt|suite|ste|unit|building|bldg|floor|fl|room|rm|lot|trlr|#)\.?\s*#?\s*[\w-]+)$`)

// secondaryKeyword detects unit markers anywhere in the string
var secondaryKeyword = regexp.MustCompile(
	`(?i)\b(apartment|apt|suite|ste|unit|building|bldg|floor|fl|room|rm|lot|trlr)\b|#`)

// ParseAddress heuristically splits a raw street line. The ambiguity is
// inherent: a trailing marker splits cleanly with high confidence; a
// marker elsewhere in the string is left unsplit and flagged low.
func ParseAddress(raw string) AddressParts {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AddressParts{}
	}

	if m := secondaryPattern.FindStringSubmatchIndex(raw); m != nil {
		primary := strings.TrimRight(raw[:m[2]], ", \t")
		secondary := raw[m[2]:m[3]]
		if primary != "" {
			return AddressParts{Primary: primary, Secondary: secondary}
		}
	}

	if secondaryKeyword.MatchString(raw) {
		return AddressParts{Primary: raw, Confidence: ConfidenceLow}
	}

	return AddressParts{Primary: raw}
}

// Zip5 returns the first five digits of a postal code
func Zip5(zip string) string {
	var digits strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == 5 {
				break
			}
		}
	}
	return digits.String()
}

// PoundsFromOunces converts a package weight in ounces to whole pounds
// by integer division, matching what the carrier's weight field expects.
func PoundsFromOunces(oz float64) int {
	if oz <= 0 {
		return 0
	}
	return int(oz) / 16
}
