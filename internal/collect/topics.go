package collect

import (
	"sort"
	"strings"
	"unicode"
)

// MaxTopics caps how many topics are attached to one article.
const MaxTopics = 3

// topicOrder is the canonical order used to break score ties.
var topicOrder = []string{
	"AI", "Security", "Space", "Science", "Climate", "Health",
	"Business", "Politics", "Tech",
}

var topicKeywords = map[string][]string{
	"AI": {
		"ai", "artificial intelligence", "machine learning", "llm", "gpt", "chatbot",
		"neural", "openai", "anthropic", "deepmind", "model", "generative",
	},
	"Security": {
		"security", "vulnerability", "breach", "ransomware", "malware", "exploit",
		"hacker", "phishing", "zero-day", "encryption", "cyberattack",
	},
	"Space": {
		"nasa", "spacex", "rocket", "orbit", "satellite", "astronaut", "mars",
		"moon", "telescope", "launch", "asteroid",
	},
	"Science": {
		"science", "research", "study", "scientists", "physics", "biology",
		"chemistry", "quantum", "genome", "discovery",
	},
	"Climate": {
		"climate", "emissions", "carbon", "warming", "renewable", "solar", "wind power",
		"wildfire", "drought", "fossil", "greenhouse",
	},
	"Health": {
		"health", "medical", "disease", "vaccine", "cancer", "hospital",
		"drug", "fda", "virus", "patients",
	},
	"Business": {
		"startup", "funding", "acquisition", "revenue", "earnings", "ipo",
		"layoffs", "market", "investors", "stock",
	},
	"Politics": {
		"election", "congress", "senate", "government", "regulation", "policy",
		"lawmakers", "court", "antitrust", "president",
	},
	"Tech": {
		"software", "hardware", "smartphone", "iphone", "android", "chip",
		"apple", "google", "microsoft", "app", "browser", "linux",
	},
}

// Tag picks up to MaxTopics topics for an article from its title and
// description. Title hits count twice. Articles that match nothing get no
// topics.
func Tag(title, description string) []string {
	titleTokens := tokenize(title)
	descTokens := tokenize(description)
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	type scored struct {
		topic string
		score int
	}
	var hits []scored

	for _, topic := range topicOrder {
		score := 0
		for _, kw := range topicKeywords[topic] {
			if strings.ContainsAny(kw, " -") {
				// Multi-word keyword: check in pre-lowered text
				if strings.Contains(titleLower, kw) {
					score += 2
				}
				if strings.Contains(descLower, kw) {
					score++
				}
				continue
			}
			score += 2 * countToken(titleTokens, kw)
			score += countToken(descTokens, kw)
		}
		if score > 0 {
			hits = append(hits, scored{topic, score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > MaxTopics {
		hits = hits[:MaxTopics]
	}

	topics := make([]string, len(hits))
	for i, h := range hits {
		topics[i] = h.topic
	}
	return topics
}

// countToken counts tokens equal to kw. Keywords longer than three letters
// also match as a prefix, so "rocket" hits "rockets".
func countToken(tokens []string, kw string) int {
	n := 0
	for _, t := range tokens {
		if t == kw || (len(kw) > 3 && strings.HasPrefix(t, kw)) {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
