package keyme

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}]+)?|[^\p{L}\p{N}\s]+`)

// stopwords is the English list used by NLTK.
var stopwords = toSet(`i me my myself we our ours ourselves you you're you've you'll you'd
your yours yourself yourselves he him his himself she she's her hers herself it it's its
itself they them their theirs themselves what which who whom this that that'll these those
am is are was were be been being have has had having do does did doing a an the and but if
or because as until while of at by for with about against between into through during
before after above below to from up down in out on off over under again further then once
here there when where why how all any both each few more most other some such no nor not
only own same so than too very s t can will just don don't should should've now d ll m o re
ve y ain aren aren't couldn couldn't didn didn't doesn doesn't hadn hadn't hasn hasn't haven
haven't isn isn't ma mightn mightn't mustn mustn't needn needn't shan shan't shouldn
shouldn't wasn wasn't weren weren't won won't wouldn wouldn't`)

func toSet(words string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		out[w] = true
	}
	return out
}

// Keyword is one ranked phrase.
type Keyword struct {
	Score  float64
	Phrase string
}

// Rank extracts candidate phrases from text and scores them with RAKE: a word scores
// degree/frequency over the candidate phrases, a phrase scores the sum of its words.
// Phrases are split at stopwords and punctuation. Results are sorted by score, highest
// first, ties by phrase descending.
func Rank(text string) []Keyword {
	phrases := candidates(text)

	freq := make(map[string]float64)
	degree := make(map[string]float64)
	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += float64(len(p))
		}
	}

	seen := make(map[string]bool)
	var out []Keyword
	for _, p := range phrases {
		phrase := strings.Join(p, " ")
		if seen[phrase] {
			continue
		}
		seen[phrase] = true
		var score float64
		for _, w := range p {
			score += degree[w] / freq[w]
		}
		out = append(out, Keyword{Score: score, Phrase: phrase})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Phrase > out[j].Phrase
	})
	return out
}

func candidates(text string) [][]string {
	var phrases [][]string
	var current []string
	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, current)
			current = nil
		}
	}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if stopwords[tok] || !isWord(tok) {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()
	return phrases
}

func isWord(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
