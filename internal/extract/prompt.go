package extract

import (
	"fmt"
	"strings"

	"github.com/mandilink/offer-relay/internal/langfix"
	"github.com/mandilink/offer-relay/internal/lexicon"
)

// BuildPrompt assembles the single oracle request for one inbound message:
// the raw text, the standardization vocabulary, the formatting rules the
// English rendering must satisfy, and the per-language translation
// constraints stated as hard requirements.
func BuildPrompt(body string, langs []string, lex *lexicon.Lexicon) string {
	var crops strings.Builder
	for _, name := range lex.StandardNames() {
		crops.WriteString(fmt.Sprintf("- %s\n", name))
	}

	var constraints strings.Builder
	for _, lang := range langs {
		if term, ok := langfix.ArrivalTerm(lang); ok {
			constraints.WriteString(fmt.Sprintf("- In %q, always write %q for arrival quantities, never a synonym or transliteration.\n", lang, term))
		}
		for _, rule := range langfix.Rules(lang) {
			constraints.WriteString(fmt.Sprintf("- In %q, write %q for %s, never %s.\n",
				lang, rule.Correct, rule.Crop, quoteList(rule.Wrong)))
		}
	}

	return fmt.Sprintf(`You are an agricultural market offer extraction expert. Your task is to extract every distinct commodity offer from a mandi trade message, standardize it, and translate it.

MESSAGE:
%s

KNOWN STANDARDIZED CROPS:
%s
KNOWN CATEGORIES: %s

TARGET LANGUAGES: %s

Extract each distinct offer. Treat different quality grades, origins, or markets of the same crop as separate offers. For every offer, match the base crop to the closest KNOWN STANDARDIZED CROP and assign exactly one KNOWN CATEGORY.

Format the English text of every offer by these rules:
- Drop lines that only report no trading (NA, NAD, NO SALES, NOT AVAILABLE, NO RATE, NO TRADING).
- Remove "+0" and "(+0)" change markers.
- Convert KATTA to BAG at 2 KATTA = 1 BAG (round a range's lower bound up and its upper bound down; round single values up).
- Convert QUINTAL to BAG at 1 QUINTAL = 2 BAG.
- Remove phone numbers, email addresses, and contact or promotional phrases.
- Put a market name ending in MARKET on its own line.
- Remove emoji and symbols, and upper-case the result.

Translate every offer's text into each target language.

TRANSLATION CONSTRAINTS (hard requirements):
%s
Return your response as a JSON array inside a fenced code block with the following structure:

`+"```json"+`
[
  {
    "extractedName": "offer name as written, including quality/origin/market qualifiers",
    "standardizedName": "one of the KNOWN STANDARDIZED CROPS",
    "category": "one of the KNOWN CATEGORIES",
    "details": {
      "en": "formatted offer text in English",
      "hi": "translated offer text"
    }
  }
]
`+"```"+`

Include one details entry per target language. Do not invent offers, prices, or quantities that are not in the message.

IMPORTANT: Your response MUST contain only the fenced JSON array and nothing else. Do not include any explanations or text outside of the fenced block.`,
		body,
		crops.String(),
		strings.Join(lex.Categories(), ", "),
		strings.Join(langs, ", "),
		constraints.String())
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return strings.Join(quoted, " or ")
}
