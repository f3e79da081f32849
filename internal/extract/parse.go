package extract

import (
	"encoding/json"
	"regexp"
)

// Offer is one extracted market offer: the name as written in the message,
// its standardized crop and category, and the per-language offer texts.
type Offer struct {
	ExtractedName    string            `json:"extractedName"`
	StandardizedName string            `json:"standardizedName"`
	Category         string            `json:"category"`
	Details          map[string]string `json:"details"`
}

// Outcome tags which parsing strategy produced the offers.
type Outcome int

const (
	ParseFailed Outcome = iota
	ParsedStrict
	ParsedLenient
)

func (o Outcome) String() string {
	switch o {
	case ParsedStrict:
		return "strict"
	case ParsedLenient:
		return "lenient"
	default:
		return "failed"
	}
}

var fencedArrayRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// ParseResponse applies the parsing contract to a raw oracle response: a
// strict parse of the fenced JSON array first, then a lenient scan for
// balanced object literals anywhere in the text. The lenient path keeps any
// object carrying all four offer fields, so it can recover partial results
// from a malformed response.
func ParseResponse(raw string) ([]Offer, Outcome) {
	if offers, ok := parseStrict(raw); ok {
		return offers, ParsedStrict
	}
	if offers := parseLenient(raw); len(offers) > 0 {
		return offers, ParsedLenient
	}
	return nil, ParseFailed
}

func parseStrict(raw string) ([]Offer, bool) {
	m := fencedArrayRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	var offers []Offer
	if err := json.Unmarshal([]byte(m[1]), &offers); err != nil {
		return nil, false
	}
	return offers, true
}

func parseLenient(raw string) []Offer {
	var offers []Offer
	for _, span := range scanObjects(raw) {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(span), &probe); err != nil {
			continue
		}
		if !hasOfferFields(probe) {
			continue
		}
		var o Offer
		if err := json.Unmarshal([]byte(span), &o); err != nil {
			continue
		}
		offers = append(offers, o)
	}
	return offers
}

func hasOfferFields(probe map[string]json.RawMessage) bool {
	for _, field := range []string{"extractedName", "standardizedName", "category", "details"} {
		if _, ok := probe[field]; !ok {
			return false
		}
	}
	return true
}

// scanObjects returns every balanced top-level {...} span in raw. Brace
// depth is tracked across JSON string literals and escapes so braces inside
// offer text do not break the scan; quotes in surrounding prose are ignored.
func scanObjects(raw string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, raw[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}
