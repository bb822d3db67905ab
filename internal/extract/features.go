package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/docquiz/internal/model"
)

const (
	maxKeywords = 5
	maxNumbers  = 3
	maxRoles    = 3
	maxTopics   = 5

	// Alphabetic and hiragana tokens must be strictly longer than this
	minKeywordRunes = 3
	// Kanji and katakana words are short; two runes already carry meaning
	minDenseRunes = 2
)

// Analyzer is the deterministic, service-free text analyzer. It never fails.
type Analyzer struct {
	vocab     *Vocabulary
	stopwords map[string]bool
	numberRe  *regexp.Regexp
	roleRe    *regexp.Regexp
	topicRe   *regexp.Regexp
}

// NewAnalyzer compiles the vocabulary's word lists into matchers
func NewAnalyzer(vocab *Vocabulary) *Analyzer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}

	stopwords := make(map[string]bool, len(vocab.Stopwords))
	for _, w := range vocab.Stopwords {
		stopwords[strings.ToLower(w)] = true
	}

	a := &Analyzer{
		vocab:     vocab,
		stopwords: stopwords,
		roleRe:    alternation(vocab.Roles),
		topicRe:   alternation(vocab.Topics),
	}
	if units := alternation(vocab.Units); units != nil {
		a.numberRe = regexp.MustCompile(`[0-9０-９]+(?:[.,][0-9０-９]+)*\s*(?:` + units.String() + `)`)
	}
	return a
}

// Vocabulary returns the vocabulary the analyzer was built from
func (a *Analyzer) Vocabulary() *Vocabulary {
	return a.vocab
}

// Features runs every extractor over text
func (a *Analyzer) Features(text string) model.TextFeatures {
	return model.TextFeatures{
		Keywords: a.Keywords(text),
		Numbers:  a.Numbers(text),
		Roles:    a.Roles(text),
		Topics:   a.Topics(text),
	}
}

// Keywords returns the most frequent words, ties broken by first occurrence
func (a *Analyzer) Keywords(text string) []string {
	type entry struct {
		word  string
		count int
		first int
	}

	counts := make(map[string]*entry)
	var order []*entry

	for _, tok := range tokenize(text) {
		if !keywordCandidate(tok) || a.stopwords[tok] {
			continue
		}
		e, ok := counts[tok]
		if !ok {
			e = &entry{word: tok, first: len(order)}
			counts[tok] = e
			order = append(order, e)
		}
		e.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	keywords := make([]string, 0, maxKeywords)
	for _, e := range order {
		if len(keywords) == maxKeywords {
			break
		}
		keywords = append(keywords, e.word)
	}
	return keywords
}

// Numbers returns the first quantities (number followed by a known unit)
func (a *Analyzer) Numbers(text string) []string {
	if a.numberRe == nil {
		return []string{}
	}
	out := make([]string, 0, maxNumbers)
	for _, loc := range a.numberRe.FindAllStringIndex(text, -1) {
		if len(out) == maxNumbers {
			break
		}
		m := text[loc[0]:loc[1]]
		if !unitBoundary(m, text[loc[1]:]) {
			continue
		}
		out = append(out, strings.Join(strings.Fields(m), ""))
	}
	return out
}

// unitBoundary rejects Latin units that are only the start of a longer
// word: the "t" of "3 times" or the "m" of "5 months"
func unitBoundary(match, rest string) bool {
	last, _ := utf8.DecodeLastRuneInString(match)
	if !unicode.Is(unicode.Latin, last) {
		return true
	}
	next, size := utf8.DecodeRuneInString(rest)
	return size == 0 || !unicode.Is(unicode.Latin, next)
}

// Roles returns distinct organizational roles in first-occurrence order
func (a *Analyzer) Roles(text string) []string {
	return distinctMatches(a.roleRe, text, maxRoles)
}

// Topics returns distinct operational topics in first-occurrence order
func (a *Analyzer) Topics(text string) []string {
	return distinctMatches(a.topicRe, text, maxTopics)
}

type script int

const (
	scriptNone script = iota
	scriptWord
	scriptHan
	scriptKatakana
	scriptHiragana
)

func scriptOf(r rune) script {
	switch {
	case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
		return scriptNone
	case unicode.Is(unicode.Han, r):
		return scriptHan
	case unicode.Is(unicode.Katakana, r) || r == 'ー':
		return scriptKatakana
	case unicode.Is(unicode.Hiragana, r):
		return scriptHiragana
	default:
		return scriptWord
	}
}

// tokenize lowercases text and splits it on whitespace, punctuation and
// symbols, and wherever the script changes. Japanese has no spaces, so
// kanji, katakana and hiragana runs stand in for words: "従業員は報告する"
// yields 従業員, は, 報告, する.
func tokenize(text string) []string {
	var tokens []string
	start, current := -1, scriptNone

	text = strings.ToLower(text)
	for i, r := range text {
		sc := scriptOf(r)
		if unicode.IsMark(r) && current != scriptNone {
			sc = current
		}
		if sc == current {
			continue
		}
		if current != scriptNone {
			tokens = append(tokens, text[start:i])
		}
		start, current = i, sc
	}
	if current != scriptNone {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// keywordCandidate applies the per-script length floor and drops tokens
// without a single letter
func keywordCandidate(tok string) bool {
	first, _ := utf8.DecodeRuneInString(tok)
	n := utf8.RuneCountInString(tok)
	switch scriptOf(first) {
	case scriptHan, scriptKatakana:
		return n >= minDenseRunes
	}
	return n > minKeywordRunes && strings.IndexFunc(tok, unicode.IsLetter) >= 0
}

// alternation builds a regexp matching any of words, longest first
func alternation(words []string) *regexp.Regexp {
	cleaned := dedupe(words)
	if len(cleaned) == 0 {
		return nil
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return utf8.RuneCountInString(cleaned[i]) > utf8.RuneCountInString(cleaned[j])
	})

	quoted := make([]string, len(cleaned))
	for i, w := range cleaned {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile("(?:" + strings.Join(quoted, "|") + ")")
}

func distinctMatches(re *regexp.Regexp, text string, limit int) []string {
	out := make([]string, 0, limit)
	if re == nil {
		return out
	}
	seen := make(map[string]bool)
	for _, m := range re.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

// dedupe drops blanks and repeats, keeping first-occurrence order
func dedupe(words []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}

	return unique
}
