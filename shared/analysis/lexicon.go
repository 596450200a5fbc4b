package analysis

import "strings"

// Lexicon holds the per-language word lists used for sentiment scoring and
// stopword filtering. Entries may be single words or space separated phrases;
// they are matched against normalized tokens, so apostrophes are dropped
// ("don't" is written "dont").
type Lexicon struct {
	Positive  map[string][]string
	Negative  map[string][]string
	Confusion map[string][]string
	Stopwords map[string][]string

	// Interrogatives, PainPoints and Requests feed the themes counters.
	Interrogatives []string
	PainPoints     []string
	Requests       []string
}

// DefaultLexicon returns the built-in English and Russian lexicons.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Positive: map[string][]string{
			"en": {
				"love", "loved", "amazing", "awesome", "incredible", "fantastic", "wow", "omg",
				"best", "great", "excellent", "perfect", "beautiful", "brilliant", "thanks",
				"helpful", "cool", "nice", "favorite", "favourite", "masterpiece", "legend",
				"epic", "insane", "hilarious", "thank you", "well done", "so good",
			},
			"ru": {
				"отлично", "супер", "круто", "классно", "прекрасно", "замечательно", "великолепно",
				"потрясающе", "восхитительно", "превосходно", "шикарно", "браво", "молодец",
				"спасибо", "благодарю", "нравится", "люблю", "обожаю", "восторг", "кайф", "топ",
				"лучший", "идеально", "офигенно", "вау", "крутяк",
			},
		},
		Negative: map[string][]string{
			"en": {
				"hate", "terrible", "awful", "worst", "bad", "annoying", "stupid", "boring",
				"useless", "waste", "horrible", "disappointing", "disappointed", "broken",
				"trash", "garbage", "cringe", "clickbait", "scam", "ugh", "wtf", "frustrating",
				"doesnt work", "not working", "dont like", "waste of time",
			},
			"ru": {
				"плохо", "ужасно", "отвратительно", "кошмар", "жесть", "треш", "позор", "провал",
				"разочарование", "бесит", "тупо", "ненавижу", "худший", "отстой", "бред", "чушь",
				"фигня", "лажа", "расстраивает", "не работает", "не нравится",
			},
		},
		Confusion: map[string][]string{
			"en": {
				"why", "how", "confused", "confusing", "unclear", "explain", "huh", "lost",
				"dont understand", "dont get", "doesnt make sense", "what does", "what is",
			},
			"ru": {
				"почему", "зачем", "непонятно", "объясните", "объясни", "объяснить", "не понимаю", "не понял",
				"не поняла", "как это", "что это",
			},
		},
		Stopwords: map[string][]string{
			"en": englishStopwords,
			"ru": russianStopwords,
		},
		Interrogatives: []string{"how", "what", "why", "when", "where", "which", "как", "что", "почему", "зачем", "когда", "где"},
		PainPoints:     []string{"problem", "issue", "error", "bug", "crash", "проблема", "ошибка", "баг"},
		Requests:       []string{"please", "can you", "could you", "would you", "пожалуйста", "можете", "сделайте"},
	}
}

// Merge adds the entries of other to l, language by language.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	l.Positive = mergeLists(l.Positive, other.Positive)
	l.Negative = mergeLists(l.Negative, other.Negative)
	l.Confusion = mergeLists(l.Confusion, other.Confusion)
	l.Stopwords = mergeLists(l.Stopwords, other.Stopwords)
	l.Interrogatives = append(l.Interrogatives, other.Interrogatives...)
	l.PainPoints = append(l.PainPoints, other.PainPoints...)
	l.Requests = append(l.Requests, other.Requests...)
}

func mergeLists(dst, src map[string][]string) map[string][]string {
	if dst == nil {
		dst = make(map[string][]string)
	}
	for lang, words := range src {
		dst[lang] = append(dst[lang], words...)
	}
	return dst
}

// matcher is the compiled, read-only form of a word list.
type matcher struct {
	words   map[string]struct{}
	phrases []string
}

func newMatcher(lists ...[]string) matcher {
	m := matcher{words: make(map[string]struct{})}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, entry := range list {
			entry = strings.ToLower(strings.TrimSpace(entry))
			if entry == "" {
				continue
			}
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			if strings.Contains(entry, " ") {
				m.phrases = append(m.phrases, entry)
			} else {
				m.words[entry] = struct{}{}
			}
		}
	}
	return m
}

// hits counts distinct lexicon entries present in the token stream.
func (m matcher) hits(tokens []string, joined string) int {
	n := 0
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if _, ok := m.words[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		n++
	}
	for _, phrase := range m.phrases {
		if strings.Contains(joined, " "+phrase+" ") {
			n++
		}
	}
	return n
}

func flatten(byLang map[string][]string) [][]string {
	out := make([][]string, 0, len(byLang))
	for _, lang := range sortedKeys(byLang) {
		out = append(out, byLang[lang])
	}
	return out
}

var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your", "yours",
	"yourself", "yourselves", "he", "him", "his", "himself", "she", "her", "hers", "herself",
	"it", "its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "these", "those", "am", "is", "are", "was", "were", "be",
	"been", "being", "have", "has", "had", "having", "do", "does", "did", "doing", "a", "an",
	"the", "and", "but", "if", "or", "because", "as", "until", "while", "of", "at", "by",
	"for", "with", "about", "against", "between", "into", "through", "during", "before",
	"after", "above", "below", "to", "from", "up", "down", "in", "out", "on", "off", "over",
	"under", "again", "further", "then", "once", "here", "there", "when", "where", "why",
	"how", "all", "any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "can", "will", "just",
	"should", "now", "dont", "doesnt", "didnt", "isnt", "arent", "wasnt", "cant", "wont",
	"im", "ive", "youre", "thats", "its", "would", "could", "also", "get", "got", "one",
	"really", "like", "even", "much", "still", "well", "way", "make",
}

var russianStopwords = []string{
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а", "то", "все", "она", "так",
	"его", "но", "да", "ты", "к", "у", "же", "вы", "за", "бы", "по", "только", "ее", "мне", "было",
	"вот", "от", "меня", "еще", "нет", "о", "из", "ему", "теперь", "когда", "даже", "ну", "вдруг",
	"ли", "если", "уже", "или", "ни", "быть", "был", "него", "до", "вас", "нибудь", "опять", "уж",
	"вам", "ведь", "там", "потом", "себя", "ничего", "ей", "может", "они", "тут", "где", "есть",
	"надо", "ней", "для", "мы", "тебя", "их", "чем", "была", "сам", "чтоб", "без", "будто", "чего",
	"раз", "тоже", "себе", "под", "будет", "ж", "тогда", "кто", "этот", "того", "потому", "этого",
	"какой", "совсем", "ним", "здесь", "этом", "один", "почти", "мой", "тем", "чтобы", "нее",
	"сейчас", "были", "куда", "зачем", "всех", "никогда", "можно", "при", "наконец", "два", "об",
	"другой", "хоть", "после", "над", "больше", "тот", "через", "эти", "нас", "про", "всего",
	"них", "какая", "много", "разве", "три", "эту", "моя", "впрочем", "хорошо", "свою", "этой",
	"перед", "иногда", "лучше", "чуть", "том", "нельзя", "такой", "им", "более", "всегда", "конечно",
	"всю", "между", "это", "очень",
}
