// Package langfix applies deterministic per-language corrections on top of
// machine-translated offer text. The oracle makes a small set of systematic
// mistakes (wrong "arrival" synonym, off-script crop spellings); each is
// fixed by a precompiled substitution. Languages without defined corrections
// pass through untouched.
package langfix

import (
	"regexp"
	"sort"
	"strings"
)

// Rule is one crop rendering constraint: in the given language, Correct is
// the only accepted spelling and every entry in Wrong is replaced by it.
type Rule struct {
	Crop    string
	Correct string
	Wrong   []string
}

const arrivalWrongPattern = `आगमन|आवाक|अावक|(?i:\b(?:AAVAK|AVAK|AWAK)\b)`

var arrivalFixes = map[string]substitution{
	"hi": {re: regexp.MustCompile(arrivalWrongPattern), correct: "आवक"},
	"mr": {re: regexp.MustCompile(arrivalWrongPattern), correct: "आवक"},
}

var cropRules = map[string][]Rule{
	"hi": {
		{Crop: "TOOR DAL", Correct: "तूर दाल", Wrong: []string{"टूर दाल", "तुर दाल", "तूर डाल", "TOOR DAL"}},
		{Crop: "CHANA", Correct: "चना", Wrong: []string{"चणा", "CHANA"}},
		{Crop: "MOONG", Correct: "मूंग", Wrong: []string{"मुंग", "मूँग", "MOONG"}},
		{Crop: "URAD", Correct: "उड़द", Wrong: []string{"उडद", "उरद", "URAD"}},
		{Crop: "WHEAT", Correct: "गेहूं", Wrong: []string{"गेहू", "गहू", "WHEAT"}},
	},
	"mr": {
		{Crop: "TOOR DAL", Correct: "तूर डाळ", Wrong: []string{"टूर डाळ", "तुर डाळ", "तूर दाल", "TOOR DAL"}},
		{Crop: "CHANA", Correct: "हरभरा", Wrong: []string{"चना", "चणा", "CHANA"}},
		{Crop: "MOONG", Correct: "मूग", Wrong: []string{"मुंग", "मूंग", "MOONG"}},
		{Crop: "URAD", Correct: "उडीद", Wrong: []string{"उड़द", "उडद", "URAD"}},
		{Crop: "WHEAT", Correct: "गहू", Wrong: []string{"गेहूं", "WHEAT"}},
		{Crop: "LAKHODI DAL", Correct: "लाखोळी डाळ", Wrong: []string{"लाखोरी डाळ", "लाखोडी डाळ", "LAKHODI DAL"}},
	},
}

type substitution struct {
	re      *regexp.Regexp
	correct string
}

var cropFixes map[string]map[string]substitution

func init() {
	cropFixes = make(map[string]map[string]substitution, len(cropRules))
	for lang, rules := range cropRules {
		byCrop := make(map[string]substitution, len(rules))
		for _, r := range rules {
			byCrop[r.Crop] = substitution{re: compileWrong(r.Correct, r.Wrong), correct: r.Correct}
		}
		cropFixes[lang] = byCrop
	}
}

// compileWrong builds one alternation over the wrong renderings plus the
// correct one. Longer entries come first so a shorter one never shadows a
// longer match; the correct form maps to itself, which keeps a wrong form
// that is a substring of the correct one (गेहू inside गेहूं) from corrupting
// already-correct text. Latin-script entries match whole words only.
func compileWrong(correct string, wrong []string) *regexp.Regexp {
	ordered := make([]string, 0, len(wrong)+1)
	ordered = append(ordered, wrong...)
	ordered = append(ordered, correct)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	parts := make([]string, 0, len(ordered))
	for _, w := range ordered {
		q := regexp.QuoteMeta(w)
		if isASCII(w) {
			q = `(?i:\b` + q + `\b)`
		}
		parts = append(parts, q)
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// Apply fixes the generic "arrival" mistranslations for lang. Text in
// languages without a defined fix is returned unchanged.
func Apply(lang, text string) string {
	fix, ok := arrivalFixes[lang]
	if !ok {
		return text
	}
	return fix.re.ReplaceAllString(text, fix.correct)
}

// ApplyCrop fixes the known-wrong renderings of crop in lang. Crops without
// a rendering table entry pass through unchanged.
func ApplyCrop(lang, crop, text string) string {
	fix, ok := cropFixes[lang][crop]
	if !ok {
		return text
	}
	return fix.re.ReplaceAllString(text, fix.correct)
}

// Rules returns the crop rendering constraints defined for lang, for callers
// that restate them as instructions to the translation oracle.
func Rules(lang string) []Rule {
	src := cropRules[lang]
	out := make([]Rule, len(src))
	for i, r := range src {
		w := make([]string, len(r.Wrong))
		copy(w, r.Wrong)
		out[i] = Rule{Crop: r.Crop, Correct: r.Correct, Wrong: w}
	}
	return out
}

// ArrivalTerm returns the designated "arrival" term for lang.
func ArrivalTerm(lang string) (string, bool) {
	fix, ok := arrivalFixes[lang]
	if !ok {
		return "", false
	}
	return fix.correct, true
}
