package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern     = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^<>]*)?/?>`)
	urlPattern     = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_.\-]+`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	apostrophes    = strings.NewReplacer("'", "", "’", "", "`", "")
)

// PlainText strips markup from a comment body. YouTube returns textDisplay
// with tags such as <br> and <a href>, and HTML entities. Only complete tags
// are removed, so a bare "<" in user text is kept. Markup that was
// entity-escaped is stripped after decoding too.
func PlainText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return strings.TrimSpace(raw)
	}

	text := tagPattern.ReplaceAllString(raw, " ")
	if strings.Contains(text, "&") {
		text = tagPattern.ReplaceAllString(html.UnescapeString(text), " ")
	}
	return strings.TrimSpace(collapseSpaces(text))
}

// normalized is the single-pass view of one comment used by every metric.
type normalized struct {
	plain     string
	clean     string
	tokens    []string
	joined    string
	exclaims  int
	questions int
	emoji     int
}

func normalize(raw string) normalized {
	plain := PlainText(raw)

	text := urlPattern.ReplaceAllString(plain, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = hashtagPattern.ReplaceAllString(text, " ")

	emoji := 0
	if gomoji.ContainsEmoji(text) {
		emoji = len(gomoji.CollectAll(text))
		text = gomoji.RemoveEmojis(text)
	}

	text = norm.NFKC.String(text)
	text = cases.Lower(language.Und).String(text)
	text = apostrophes.Replace(text)

	tokens := Tokenize(text)
	return normalized{
		plain:     plain,
		clean:     text,
		tokens:    tokens,
		joined:    " " + strings.Join(tokens, " ") + " ",
		exclaims:  strings.Count(text, "!"),
		questions: strings.Count(text, "?"),
		emoji:     emoji,
	}
}

// Tokenize splits already normalized text on runes that are neither letters
// nor digits. Single-rune fragments are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isAlphabetic(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return tok != ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
