package convo

import (
	"regexp"
	"strconv"
	"strings"
)

// topicVocabulary is the fixed set of financial terms recognized as topics.
// Matching is case-insensitive substring.
var topicVocabulary = []string{
	"dividend", "etf", "bond", "stock", "option", "crypto",
	"inflation", "interest rate", "recession", "diversification",
	"retirement", "savings", "tax", "ipo", "earnings", "volatility",
	"index fund", "real estate", "commodities", "mutual fund",
}

var (
	tickerPattern      = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	allocationPattern  = regexp.MustCompile(`(?i)(\d+)%\s+(in\s+)?(stocks|bonds|cash|alternatives|derivatives)`)
	agePattern         = regexp.MustCompile(`(?i)\b(?:i am|i'm)\s+(\d{1,3})\b|\b(\d{1,3})\s+years?\s+old\b`)
	constraintPattern  = regexp.MustCompile(`(?i)(?:avoid|don't recommend|do not recommend)\s+([a-z0-9][a-z0-9 ',&-]*)`)
	derivativesMention = regexp.MustCompile(`(?i)\b(options?|futures|swaps|derivatives)\b`)
)

// updateRule is one step of the context update. Rules run top to bottom on
// every message; where keyword groups within one rule overlap, the later
// check wins, so the source order below is load-bearing.
type updateRule struct {
	name  string
	apply func(c *Context, text, lower string)
}

var updateRules = []updateRule{
	{"tickers", extractTickers},
	{"topics", extractTopics},
	{"preferences", updatePreferences},
	{"portfolio", updatePortfolio},
	{"market", updateMarketConditions},
	{"profile", updateUserProfile},
	{"flow", updateFlow},
	{"constraints", extractConstraints},
}

// Update applies every update rule in order and returns the new context.
// The receiver value is not mutated.
func Update(c Context, message string) Context {
	next := c.clone()
	lower := strings.ToLower(message)
	for _, rule := range updateRules {
		rule.apply(&next, message, lower)
	}
	return next
}

func extractTickers(c *Context, text, _ string) {
	matches := tickerPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return
	}
	c.RecentStocks = mergeFront(c.RecentStocks, matches)
}

func extractTopics(c *Context, _, lower string) {
	var found []string
	for _, topic := range topicVocabulary {
		if strings.Contains(lower, topic) {
			found = append(found, topic)
		}
	}
	if len(found) == 0 {
		return
	}
	c.RecentTopics = mergeFront(c.RecentTopics, found)
}

func containsAny(lower string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func updatePreferences(c *Context, _, lower string) {
	// Risk tolerance: when a message mentions several groups, the last
	// check here wins regardless of word position in the text.
	if containsAny(lower, "conservative", "low risk", "cautious", "play it safe") {
		c.Preferences.RiskTolerance = RiskLow
	}
	if containsAny(lower, "moderate risk", "balanced", "medium risk") {
		c.Preferences.RiskTolerance = RiskMedium
	}
	if containsAny(lower, "aggressive", "high risk", "risky") {
		c.Preferences.RiskTolerance = RiskHigh
	}

	if containsAny(lower, "passive", "index fund", "buy and hold", "set and forget") {
		c.Preferences.InvestmentStyle = StylePassive
	}
	if containsAny(lower, "active", "day trad", "swing trad", "pick stocks") {
		c.Preferences.InvestmentStyle = StyleActive
	}

	if containsAny(lower, "short term", "short-term", "this year", "few months") {
		c.Preferences.TimeHorizon = HorizonShort
	}
	if containsAny(lower, "medium term", "medium-term", "few years") {
		c.Preferences.TimeHorizon = HorizonMedium
	}
	if containsAny(lower, "long term", "long-term", "decades", "for retirement") {
		c.Preferences.TimeHorizon = HorizonLong
	}

	assetClasses := []struct{ name, keyword string }{
		{"stocks", "stock"},
		{"stocks", "equit"},
		{"bonds", "bond"},
		{"real estate", "real estate"},
		{"crypto", "crypto"},
		{"commodities", "commodit"},
		{"cash", "cash"},
	}
	for _, ac := range assetClasses {
		if strings.Contains(lower, ac.keyword) {
			c.Preferences.AssetClasses = appendUnique(c.Preferences.AssetClasses, ac.name)
		}
	}
}

func updatePortfolio(c *Context, text, lower string) {
	for _, m := range allocationPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.Atoi(m[1])
		if err != nil || value < 0 || value > 100 {
			continue
		}
		switch strings.ToLower(m[3]) {
		case "stocks":
			c.Parameters.Portfolio.Stocks = value
		case "bonds":
			c.Parameters.Portfolio.Bonds = value
		case "cash":
			c.Parameters.Portfolio.Cash = value
		case "alternatives":
			c.Parameters.Portfolio.Alternatives = value
		case "derivatives":
			c.Parameters.Portfolio.Derivatives = value
		}
	}

	// Any derivatives-adjacent mention with a zero allocation gets the
	// assumed 10% starting point.
	if c.Parameters.Portfolio.Derivatives == 0 && derivativesMention.MatchString(lower) {
		c.Parameters.Portfolio.Derivatives = 10
	}
}

func updateMarketConditions(c *Context, _, lower string) {
	if containsAny(lower, "volatile", "turbulent", "wild swings", "choppy") {
		c.Parameters.Market.Volatility = VolatilityHigh
	}
	if containsAny(lower, "calm market", "quiet market", "low volatility") {
		c.Parameters.Market.Volatility = VolatilityLow
	}

	if containsAny(lower, "bull market", "bullish", "rally", "uptrend") {
		c.Parameters.Market.Trend = TrendBullish
	}
	if containsAny(lower, "bear market", "bearish", "crash", "downturn", "sell-off", "selloff") {
		c.Parameters.Market.Trend = TrendBearish
	}

	if containsAny(lower, "rate hike", "rising rates", "rates going up") {
		c.Parameters.Market.RateEnvironment = RatesRising
	}
	if containsAny(lower, "rate cut", "falling rates", "rates going down") {
		c.Parameters.Market.RateEnvironment = RatesFalling
	}
}

func updateUserProfile(c *Context, text, lower string) {
	if containsAny(lower, "beginner", "new to investing", "just started", "first time invest") {
		c.Parameters.Profile.Experience = ExperienceBeginner
	}
	if containsAny(lower, "some experience", "been investing for a few") {
		c.Parameters.Profile.Experience = ExperienceIntermediate
	}
	if containsAny(lower, "experienced investor", "advanced", "professional", "trade for a living") {
		c.Parameters.Profile.Experience = ExperienceAdvanced
	}

	if containsAny(lower, "low income", "tight budget", "don't earn much") {
		c.Parameters.Profile.Income = IncomeLow
	}
	if containsAny(lower, "high income", "high earner", "earn a lot") {
		c.Parameters.Profile.Income = IncomeHigh
	}

	if m := agePattern.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if age, err := strconv.Atoi(raw); err == nil && age > 0 && age < 120 {
			c.Parameters.Profile.Age = age
		}
	}

	goalKeywords := []struct{ goal, keyword string }{
		{"retirement", "retire"},
		{"house", "house"},
		{"house", "home purchase"},
		{"education", "college"},
		{"education", "tuition"},
		{"emergency fund", "emergency fund"},
		{"travel", "travel"},
		{"wealth building", "build wealth"},
	}
	for _, gk := range goalKeywords {
		if strings.Contains(lower, gk.keyword) {
			c.Parameters.Profile.Goals = appendUnique(c.Parameters.Profile.Goals, gk.goal)
		}
	}
}

// moduleDetectors map keyword groups to conversation modules. The first
// matching group wins.
var moduleDetectors = []struct {
	module   Module
	keywords []string
}{
	{ModulePortfolioAnalysis, []string{"portfolio", "allocation", "diversif", "holdings", "rebalance"}},
	{ModuleStockResearch, []string{"stock", "ticker", "share price", "company", "earnings"}},
	{ModuleMarketAnalysis, []string{"market", "trend", "economy", "inflation", "interest rate"}},
	{ModulePlanning, []string{"plan", "goal", "retire", "save", "budget"}},
	{ModuleEducation, []string{"what is", "what are", "explain", "how does", "mean", "learn"}},
}

func updateFlow(c *Context, _, lower string) {
	c.Parameters.Flow.Depth++

	for _, det := range moduleDetectors {
		if containsAny(lower, det.keywords...) {
			if det.module != c.Parameters.Flow.CurrentModule {
				c.Parameters.Flow.PreviousModule = c.Parameters.Flow.CurrentModule
				c.Parameters.Flow.CurrentModule = det.module
			}
			return
		}
	}
}

func extractConstraints(c *Context, text, _ string) {
	for _, m := range constraintPattern.FindAllStringSubmatch(text, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase != "" {
			c.Parameters.Flow.Constraints = append(c.Parameters.Flow.Constraints, phrase)
		}
	}
}
