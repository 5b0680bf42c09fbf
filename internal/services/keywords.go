package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// KeywordExtractor tags chunks with their most salient terms. The keywords
// are stored in chunk metadata and echoed back with search results.
type KeywordExtractor struct {
	stopWords map[string]bool
	minLength int
	maxTerms  int
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor() *KeywordExtractor {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
		"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
		"this": true, "that": true, "these": true, "those": true, "i": true, "you": true,
		"he": true, "she": true, "it": true, "we": true, "they": true, "my": true,
		"your": true, "his": true, "her": true, "its": true, "our": true, "their": true,
	}

	return &KeywordExtractor{
		stopWords: stopWords,
		minLength: 2,
		maxTerms:  8,
	}
}

type keywordScore struct {
	word  string
	freq  int
	score float64
}

// Extract returns up to maxTerms keywords for the text, ranked by a
// POS-weighted frequency score.
func (ke *KeywordExtractor) Extract(text string) ([]string, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	wordFreq := make(map[string]*keywordScore)

	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if ke.shouldSkipWord(word, tok.Tag) {
			continue
		}

		score := ke.calculateScore(tok.Tag)
		if existing, exists := wordFreq[word]; exists {
			existing.freq++
			existing.score += score
		} else {
			wordFreq[word] = &keywordScore{word: word, freq: 1, score: score}
		}
	}

	// Named entities get a boost
	for _, ent := range doc.Entities() {
		word := strings.ToLower(ent.Text)
		if len(word) >= ke.minLength && !ke.stopWords[word] {
			if existing, exists := wordFreq[word]; exists {
				existing.score += 2.0
			} else {
				wordFreq[word] = &keywordScore{word: word, freq: 1, score: 2.0}
			}
		}
	}

	scored := make([]*keywordScore, 0, len(wordFreq))
	for _, result := range wordFreq {
		result.score = result.score * float64(result.freq)
		scored = append(scored, result)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].word < scored[j].word
	})

	n := ke.maxTerms
	if n > len(scored) {
		n = len(scored)
	}
	keywords := make([]string, 0, n)
	for _, s := range scored[:n] {
		keywords = append(keywords, s.word)
	}

	return keywords, nil
}

// shouldSkipWord determines if a word should be filtered out
func (ke *KeywordExtractor) shouldSkipWord(word, posTag string) bool {
	if len(word) < ke.minLength {
		return true
	}
	if ke.stopWords[word] {
		return true
	}
	if isPureNumber(word) || isPunctuation(word) {
		return true
	}

	// Skip determiners, prepositions, pronouns and friends
	skipTags := map[string]bool{
		"DT":   true,
		"IN":   true,
		"TO":   true,
		"CC":   true,
		"PRP":  true,
		"PRP$": true,
		"WP":   true,
		"WDT":  true,
	}

	return skipTags[posTag]
}

// calculateScore assigns importance based on POS tag
func (ke *KeywordExtractor) calculateScore(posTag string) float64 {
	scores := map[string]float64{
		"NN":   1.5,
		"NNS":  1.5,
		"NNP":  2.0,
		"NNPS": 2.0,
		"VB":   1.2,
		"VBD":  1.2,
		"VBG":  1.2,
		"VBN":  1.2,
		"VBP":  1.2,
		"VBZ":  1.2,
		"JJ":   1.3,
		"JJR":  1.3,
		"JJS":  1.3,
		"RB":   0.8,
		"RBR":  0.8,
		"RBS":  0.8,
	}

	if score, exists := scores[posTag]; exists {
		return score
	}
	return 1.0
}

func isPureNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

func isPunctuation(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
