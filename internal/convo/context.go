// Package convo tracks conversational context for the TradePal assistant.
// The context is a structured record of tickers, topics, and inferred user
// and market parameters, rebuilt incrementally from each user message and
// used to condition the assistant's system prompt.
package convo

// RiskTolerance is the user's inferred appetite for risk.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// InvestmentStyle distinguishes passive from active investors.
type InvestmentStyle string

const (
	StylePassive InvestmentStyle = "passive"
	StyleActive  InvestmentStyle = "active"
)

// TimeHorizon is the user's inferred investment horizon.
type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "short"
	HorizonMedium TimeHorizon = "medium"
	HorizonLong   TimeHorizon = "long"
)

// Volatility describes perceived market volatility.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// Trend describes the perceived market direction.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// RateEnvironment describes the interest-rate backdrop.
type RateEnvironment string

const (
	RatesRising  RateEnvironment = "rising"
	RatesFalling RateEnvironment = "falling"
	RatesStable  RateEnvironment = "stable"
)

// ExperienceLevel is the user's inferred investing experience.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// IncomeLevel is the user's inferred income bracket.
type IncomeLevel string

const (
	IncomeLow    IncomeLevel = "low"
	IncomeMedium IncomeLevel = "medium"
	IncomeHigh   IncomeLevel = "high"
)

// Module is a coarse topic bucket inferred per message.
type Module string

const (
	ModulePortfolioAnalysis Module = "portfolio_analysis"
	ModuleStockResearch     Module = "stock_research"
	ModuleMarketAnalysis    Module = "market_analysis"
	ModulePlanning          Module = "planning"
	ModuleEducation         Module = "education"
)

// Preferences holds inferred user preferences. Zero values mean "unknown".
type Preferences struct {
	RiskTolerance   RiskTolerance   `json:"riskTolerance,omitempty"`
	InvestmentStyle InvestmentStyle `json:"investmentStyle,omitempty"`
	TimeHorizon     TimeHorizon     `json:"timeHorizon,omitempty"`
	AssetClasses    []string        `json:"preferredAssetClasses,omitempty"`
}

// PortfolioComposition holds the stated allocation in whole percent.
// The fields are independently settable per message and are deliberately
// never normalized or checked to sum to 100; partial disclosure across
// several turns is expected.
type PortfolioComposition struct {
	Stocks       int `json:"stocks"`
	Bonds        int `json:"bonds"`
	Cash         int `json:"cash"`
	Alternatives int `json:"alternatives"`
	Derivatives  int `json:"derivatives"`
}

// MarketConditions holds the perceived market backdrop.
type MarketConditions struct {
	Volatility      Volatility      `json:"volatility"`
	Trend           Trend           `json:"trend"`
	RateEnvironment RateEnvironment `json:"interestRateEnvironment"`
}

// UserProfile holds slowly accumulating facts about the user.
// Goals only ever grow; there is no mechanism to retract one.
type UserProfile struct {
	Experience ExperienceLevel `json:"experienceLevel,omitempty"`
	Income     IncomeLevel     `json:"incomeLevel,omitempty"`
	Age        int             `json:"age,omitempty"`
	Goals      []string        `json:"goals,omitempty"`
}

// Flow tracks the conversation's coarse topic trajectory.
type Flow struct {
	CurrentModule  Module   `json:"currentModule,omitempty"`
	PreviousModule Module   `json:"previousModule,omitempty"`
	Depth          int      `json:"depth"`
	Constraints    []string `json:"constraints,omitempty"`
}

// Parameters groups the derived portfolio/market/profile state.
type Parameters struct {
	Portfolio PortfolioComposition `json:"portfolioComposition"`
	Market    MarketConditions     `json:"marketConditions"`
	Profile   UserProfile          `json:"userProfile"`
	Flow      Flow                 `json:"conversationFlow"`
}

// Context is the full conversational context for one chat session.
// It is owned by a single session and must not be shared between sessions.
type Context struct {
	RecentStocks    []string          `json:"recentStocks,omitempty"`
	RecentTopics    []string          `json:"recentTopics,omitempty"`
	Preferences     Preferences       `json:"userPreferences"`
	Parameters      Parameters        `json:"parameters"`
	KnowledgeBlocks map[string]string `json:"knowledgeBlocks,omitempty"`
}

// MaxRecent caps the recentStocks and recentTopics lists.
const MaxRecent = 5

// New returns a fresh context with default parameters: an all-cash
// portfolio and a calm, directionless market.
func New() Context {
	return Context{
		Parameters: Parameters{
			Portfolio: PortfolioComposition{Cash: 100},
			Market: MarketConditions{
				Volatility:      VolatilityMedium,
				Trend:           TrendNeutral,
				RateEnvironment: RatesStable,
			},
		},
	}
}

// clone returns a deep copy so Update can stay pure.
func (c Context) clone() Context {
	out := c
	out.RecentStocks = append([]string(nil), c.RecentStocks...)
	out.RecentTopics = append([]string(nil), c.RecentTopics...)
	out.Preferences.AssetClasses = append([]string(nil), c.Preferences.AssetClasses...)
	out.Parameters.Profile.Goals = append([]string(nil), c.Parameters.Profile.Goals...)
	out.Parameters.Flow.Constraints = append([]string(nil), c.Parameters.Flow.Constraints...)
	if c.KnowledgeBlocks != nil {
		out.KnowledgeBlocks = make(map[string]string, len(c.KnowledgeBlocks))
		for k, v := range c.KnowledgeBlocks {
			out.KnowledgeBlocks[k] = v
		}
	}
	return out
}

// mergeFront inserts newItems at the front of list, deduplicating and
// capping at MaxRecent. Existing items keep their relative order.
func mergeFront(list []string, newItems []string) []string {
	if len(newItems) == 0 {
		return list
	}
	seen := make(map[string]struct{}, len(newItems)+len(list))
	merged := make([]string, 0, MaxRecent)
	for _, item := range newItems {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		merged = append(merged, item)
		if len(merged) == MaxRecent {
			return merged
		}
	}
	for _, item := range list {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		merged = append(merged, item)
		if len(merged) == MaxRecent {
			break
		}
	}
	return merged
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
