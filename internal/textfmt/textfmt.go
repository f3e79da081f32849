// Package textfmt normalizes offer text through a fixed, ordered set of
// cleanup rules. Format is idempotent: running it on its own output is a
// no-op, so already-clean text passes through unchanged.
package textfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	noTradeRe = regexp.MustCompile(`(?i)\b(?:NA|NAD|NO SALES?|NOT AVAILABLE|NO RATE|NO TRADING)\b`)

	zeroChangeRe = regexp.MustCompile(`\(\s*\+0\s*\)|\+0\b`)

	kattaRangeRe   = regexp.MustCompile(`(?i)\b(\d+)\s*-\s*(\d+)\s*KATTAS?\b`)
	kattaSingleRe  = regexp.MustCompile(`(?i)\b(\d+)\s*KATTAS?\b`)
	quintalRangeRe = regexp.MustCompile(`(?i)\b(\d+)\s*-\s*(\d+)\s*QUINTALS?\b`)
	quintalOneRe   = regexp.MustCompile(`(?i)\b(\d+)\s*QUINTALS?\b`)

	phoneRe = regexp.MustCompile(`\+\d{10,13}\b|(?:\+\d{1,3}[ -])?\b\d{5} ?\d{5}\b`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Boilerplate phrases are removed along with the separators and digits
	// they introduce, but never across a line break.
	marketingRe = regexp.MustCompile(`(?i)\b(?:CONTACT(?: US)?|CALL(?: NOW)?|DM|WHATSAPP|FOR DETAILS|FOR BOOKINGS?|FOR ORDERS?|TRIAL OFFER|BOOK NOW)\b[ \t:,.\-0-9]*`)

	marketHeaderRe = regexp.MustCompile(`(?i)^\s*((?:[\p{L}][\p{L}.'-]*\s+)+MARKET)\b[ \t:,-]*(.*)$`)

	symbolRe = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE00}-\x{FE0F}\x{200D}]|→`)

	innerSpaceRe = regexp.MustCompile(`[ \t]+`)
)

// Format applies the cleanup rules in order: drop no-trade lines, remove
// zero-change markers, convert KATTA and QUINTAL quantities to BAG, strip
// contact noise, break market headers onto their own line, tidy whitespace,
// strip pictographic symbols, and upper-case the result.
func Format(text string) string {
	text = dropNoTradeLines(text)
	text = zeroChangeRe.ReplaceAllString(text, "")
	text = convertUnits(text)
	text = stripContacts(text)
	text = splitMarketHeaders(text)
	text = tidyLines(text)
	text = symbolRe.ReplaceAllString(text, "")
	text = strings.ToUpper(text)
	// Symbol stripping can leave lines empty, so tidy once more.
	return tidyLines(text)
}

func dropNoTradeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if noTradeRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func convertUnits(text string) string {
	text = replaceRange(kattaRangeRe, text, func(lo, hi int) (int, int) {
		return (lo + 1) / 2, hi / 2
	})
	text = replaceSingle(kattaSingleRe, text, func(n int) int { return (n + 1) / 2 })
	text = replaceRange(quintalRangeRe, text, func(lo, hi int) (int, int) {
		return lo * 2, hi * 2
	})
	text = replaceSingle(quintalOneRe, text, func(n int) int { return n * 2 })
	return text
}

func replaceRange(re *regexp.Regexp, text string, conv func(lo, hi int) (int, int)) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		g := re.FindStringSubmatch(m)
		lo, err1 := strconv.Atoi(g[1])
		hi, err2 := strconv.Atoi(g[2])
		if err1 != nil || err2 != nil {
			return m
		}
		lo, hi = conv(lo, hi)
		return fmt.Sprintf("%d-%d BAG", lo, hi)
	})
}

func replaceSingle(re *regexp.Regexp, text string, conv func(n int) int) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		g := re.FindStringSubmatch(m)
		n, err := strconv.Atoi(g[1])
		if err != nil {
			return m
		}
		return fmt.Sprintf("%d BAG", conv(n))
	})
}

func stripContacts(text string) string {
	text = phoneRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	return marketingRe.ReplaceAllString(text, "")
}

func splitMarketHeaders(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		g := marketHeaderRe.FindStringSubmatch(line)
		if g == nil {
			out = append(out, line)
			continue
		}
		out = append(out, strings.ToUpper(strings.TrimSpace(g[1])))
		if rest := strings.TrimSpace(g[2]); rest != "" {
			out = append(out, rest)
		}
	}
	return strings.Join(out, "\n")
}

func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(innerSpaceRe.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
