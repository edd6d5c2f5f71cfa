package llm

import (
	"math/rand"
	"strings"
	"sync"
)

// fallbackReplies is the pool of generic replies used when the remote
// completion cannot be reached.
var fallbackReplies = []string{
	"I'm having trouble reaching my market brain right now, but I can still share what I know.",
	"My connection to the analysis service hiccuped. Here's some general guidance in the meantime.",
	"I couldn't fetch a fresh answer just now, so here's the short version from memory.",
	"The research service is taking a break. Let me give you the essentials instead.",
}

// topicParagraphs are canned explainers matched against the *outgoing*
// user message, not the failed response.
var topicParagraphs = []struct {
	keyword   string
	paragraph string
}{
	{"etf", "An ETF is a fund that trades on an exchange like a single stock while holding a whole basket of assets. Most track an index, which keeps fees low and spreads risk across many holdings."},
	{"stock", "A stock is a slice of ownership in a company. Its price moves with the company's results and with overall market sentiment, which is why holding many stocks is less bumpy than holding one."},
	{"bond", "A bond is a loan to a government or company that pays you interest until it matures. Bonds usually swing less than stocks and are often used to steady a portfolio."},
	{"crypto", "Cryptocurrencies are digital assets with large price swings and no underlying cash flows. Most guidance treats them as a small, speculative slice of a portfolio at most."},
	{"portfolio", "A healthy portfolio spreads money across asset classes so no single position can sink it. Reviewing the mix once or twice a year is usually enough for long-term investors."},
}

// FallbackPool picks a canned reply pseudo-randomly and appends a
// topic-matched paragraph when the user's message mentions one.
type FallbackPool struct {
	mu   sync.Mutex
	rng  *rand.Rand
	pool []string
}

// NewFallbackPool creates a pool with the default replies.
func NewFallbackPool() *FallbackPool {
	return NewFallbackPoolSeeded(rand.Int63())
}

// NewFallbackPoolSeeded creates a pool with a fixed seed, for tests.
func NewFallbackPoolSeeded(seed int64) *FallbackPool {
	return &FallbackPool{
		rng:  rand.New(rand.NewSource(seed)),
		pool: fallbackReplies,
	}
}

// Reply returns a fallback response for the given outgoing message.
func (p *FallbackPool) Reply(message string) string {
	p.mu.Lock()
	reply := p.pool[p.rng.Intn(len(p.pool))]
	p.mu.Unlock()

	lower := strings.ToLower(message)
	for _, tp := range topicParagraphs {
		if strings.Contains(lower, tp.keyword) {
			return reply + "\n\n" + tp.paragraph
		}
	}
	return reply
}
