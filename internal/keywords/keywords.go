// Package keywords extracts frequency-ranked tag candidates from
// conversation text.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopWords are never emitted as keywords. The tail of the set is domain
// noise that shows up in nearly every Gemini conversation and would
// otherwise dominate the rankings.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all am an and any are aren't as at
		be because been before being below between both but by can can't cannot
		could couldn't did didn't do does doesn't doing don don't down during each
		few for from further had hadn't has hasn't have haven't having he he'd
		he'll he's her here here's hers herself him himself his how how's i i'd
		i'll i'm i've if in into is isn't it it's its itself let let's me
		more most mustn't my myself no nor not of off on once only or other
		ought our ourselves out over own same shan shan't she she'd she'll
		she's should shouldn't so some such than that that's the their theirs them
		themselves then there there's these they they'd they'll they're they've this
		those through to too under until up very was wasn't we we'd we'll we're
		we've were weren't what what's when when's where where's which while who
		who's whom why why's with won't would wouldn't you you'd you'll you're
		you've your yours yourself yourselves gemini apps bard html google please
		thank thanks help need want get make know think like use work see say`) {
		stopWords[w] = struct{}{}
	}
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Extract returns the max most frequent meaningful tokens in text,
// ordered by descending frequency. Tokens must be longer than two runes,
// purely alphabetic, and not stop-words. Equal frequencies rank in
// first-encountered order, which keeps the output stable across runs.
func Extract(text string, max int) []string {
	if text == "" || max <= 0 {
		return nil
	}

	text = strings.ToLower(norm.NFKD.String(text))
	text = nonWord.ReplaceAllString(text, " ")

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(text) {
		if !keep(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	return order
}

func keep(word string) bool {
	if len([]rune(word)) <= 2 {
		return false
	}
	if _, stopped := stopWords[word]; stopped {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
