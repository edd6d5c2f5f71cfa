package convo

import (
	"strings"
	"testing"
)

func TestUpdate_ExplicitAllocation(t *testing.T) {
	c := Update(New(), "I have 30% in bonds and 50% in stocks")

	if c.Parameters.Portfolio.Bonds != 30 {
		t.Errorf("expected bonds=30, got %d", c.Parameters.Portfolio.Bonds)
	}
	if c.Parameters.Portfolio.Stocks != 50 {
		t.Errorf("expected stocks=50, got %d", c.Parameters.Portfolio.Stocks)
	}
	// Cash default must survive untouched fields.
	if c.Parameters.Portfolio.Cash != 100 {
		t.Errorf("expected cash untouched at 100, got %d", c.Parameters.Portfolio.Cash)
	}
}

func TestUpdate_AllocationOutOfRangeIgnored(t *testing.T) {
	c := Update(New(), "I put 150% in stocks")
	if c.Parameters.Portfolio.Stocks != 0 {
		t.Errorf("out-of-range allocation should be ignored, got stocks=%d", c.Parameters.Portfolio.Stocks)
	}
}

func TestUpdate_DerivativesDefaultOnMention(t *testing.T) {
	c := Update(New(), "should I trade options here?")
	if c.Parameters.Portfolio.Derivatives != 10 {
		t.Errorf("expected derivatives default 10 on options mention, got %d", c.Parameters.Portfolio.Derivatives)
	}

	// An explicit statement in the same message wins over the default.
	c = Update(New(), "I keep 25% in derivatives via options")
	if c.Parameters.Portfolio.Derivatives != 25 {
		t.Errorf("expected explicit derivatives=25, got %d", c.Parameters.Portfolio.Derivatives)
	}
}

func TestUpdate_TickersCappedAndDeduplicated(t *testing.T) {
	c := New()
	messages := []string{
		"compare AAPL and MSFT",
		"what about GOOG TSLA NVDA",
		"AAPL again, plus AMZN and META",
	}
	for _, msg := range messages {
		c = Update(c, msg)
	}

	if len(c.RecentStocks) > MaxRecent {
		t.Fatalf("recentStocks exceeded cap: %v", c.RecentStocks)
	}
	seen := map[string]bool{}
	for _, s := range c.RecentStocks {
		if seen[s] {
			t.Errorf("duplicate ticker %q in %v", s, c.RecentStocks)
		}
		seen[s] = true
	}
	if c.RecentStocks[0] != "AAPL" {
		t.Errorf("most recent ticker should lead, got %v", c.RecentStocks)
	}
}

func TestUpdate_TopicsCapped(t *testing.T) {
	c := New()
	c = Update(c, "tell me about dividend stocks and etf strategies")
	c = Update(c, "inflation, recession, and interest rate worries")
	c = Update(c, "crypto and tax and ipo and earnings")

	if len(c.RecentTopics) > MaxRecent {
		t.Fatalf("recentTopics exceeded cap: %v", c.RecentTopics)
	}
	seen := map[string]bool{}
	for _, topic := range c.RecentTopics {
		if seen[topic] {
			t.Errorf("duplicate topic %q", topic)
		}
		seen[topic] = true
	}
}

func TestUpdate_PreferencesFromOneMessage(t *testing.T) {
	c := Update(New(), "I prefer a conservative, long term approach")

	if c.Preferences.RiskTolerance != RiskLow {
		t.Errorf("expected riskTolerance=low, got %q", c.Preferences.RiskTolerance)
	}
	if c.Preferences.TimeHorizon != HorizonLong {
		t.Errorf("expected timeHorizon=long, got %q", c.Preferences.TimeHorizon)
	}
}

func TestUpdate_ConflictingRiskKeywordsLastCheckWins(t *testing.T) {
	// Both groups match; the high-risk check runs later in source order, so
	// it wins regardless of word position in the message.
	c := Update(New(), "aggressive or conservative, which is better?")
	if c.Preferences.RiskTolerance != RiskHigh {
		t.Errorf("expected last-checked group (high) to win, got %q", c.Preferences.RiskTolerance)
	}
}

func TestUpdate_FlowDepthAndModule(t *testing.T) {
	c := New()
	c = Update(c, "how does my portfolio allocation look?")
	if c.Parameters.Flow.Depth != 1 {
		t.Errorf("expected depth=1, got %d", c.Parameters.Flow.Depth)
	}
	if c.Parameters.Flow.CurrentModule != ModulePortfolioAnalysis {
		t.Errorf("expected portfolio_analysis, got %q", c.Parameters.Flow.CurrentModule)
	}

	c = Update(c, "ok, what is an ETF exactly?")
	if c.Parameters.Flow.Depth != 2 {
		t.Errorf("expected depth=2, got %d", c.Parameters.Flow.Depth)
	}
	if c.Parameters.Flow.CurrentModule != ModuleEducation {
		t.Errorf("expected education, got %q", c.Parameters.Flow.CurrentModule)
	}
	if c.Parameters.Flow.PreviousModule != ModulePortfolioAnalysis {
		t.Errorf("expected previous=portfolio_analysis, got %q", c.Parameters.Flow.PreviousModule)
	}
}

func TestUpdate_ModuleFirstMatchWins(t *testing.T) {
	// Mentions both portfolio and stock keywords; portfolio_analysis is
	// checked first.
	c := Update(New(), "rebalance my portfolio around one stock")
	if c.Parameters.Flow.CurrentModule != ModulePortfolioAnalysis {
		t.Errorf("expected portfolio_analysis, got %q", c.Parameters.Flow.CurrentModule)
	}
}

func TestUpdate_ConstraintsAccumulate(t *testing.T) {
	c := New()
	c = Update(c, "please avoid crypto")
	c = Update(c, "and don't recommend penny stocks")

	if len(c.Parameters.Flow.Constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %v", c.Parameters.Flow.Constraints)
	}
	if !strings.Contains(c.Parameters.Flow.Constraints[0], "crypto") {
		t.Errorf("expected crypto constraint, got %q", c.Parameters.Flow.Constraints[0])
	}
	if !strings.Contains(c.Parameters.Flow.Constraints[1], "penny stocks") {
		t.Errorf("expected penny stocks constraint, got %q", c.Parameters.Flow.Constraints[1])
	}
}

func TestUpdate_ProfileAgeAndGoals(t *testing.T) {
	c := Update(New(), "I'm 35 and saving to retire early")
	if c.Parameters.Profile.Age != 35 {
		t.Errorf("expected age=35, got %d", c.Parameters.Profile.Age)
	}
	if len(c.Parameters.Profile.Goals) == 0 || c.Parameters.Profile.Goals[0] != "retirement" {
		t.Errorf("expected retirement goal, got %v", c.Parameters.Profile.Goals)
	}

	// Goals never shrink.
	c = Update(c, "also thinking about a house someday")
	if len(c.Parameters.Profile.Goals) != 2 {
		t.Errorf("expected goals to accumulate, got %v", c.Parameters.Profile.Goals)
	}
}

func TestUpdate_MarketConditions(t *testing.T) {
	c := Update(New(), "the market feels volatile and bearish after the rate hike")

	if c.Parameters.Market.Volatility != VolatilityHigh {
		t.Errorf("expected high volatility, got %q", c.Parameters.Market.Volatility)
	}
	if c.Parameters.Market.Trend != TrendBearish {
		t.Errorf("expected bearish trend, got %q", c.Parameters.Market.Trend)
	}
	if c.Parameters.Market.RateEnvironment != RatesRising {
		t.Errorf("expected rising rates, got %q", c.Parameters.Market.RateEnvironment)
	}
}

func TestUpdate_DoesNotMutateInput(t *testing.T) {
	original := New()
	_ = Update(original, "AAPL 40% in stocks, avoid crypto, I'm aggressive")

	if original.Parameters.Flow.Depth != 0 {
		t.Error("Update must not mutate its input")
	}
	if len(original.RecentStocks) != 0 {
		t.Error("Update must not mutate input ticker list")
	}
	if original.Parameters.Portfolio.Stocks != 0 {
		t.Error("Update must not mutate input portfolio")
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	if c.Parameters.Portfolio.Cash != 100 {
		t.Errorf("expected default cash=100, got %d", c.Parameters.Portfolio.Cash)
	}
	if c.Parameters.Market.Volatility != VolatilityMedium {
		t.Errorf("expected default volatility=medium, got %q", c.Parameters.Market.Volatility)
	}
	if c.Parameters.Market.Trend != TrendNeutral {
		t.Errorf("expected default trend=neutral, got %q", c.Parameters.Market.Trend)
	}
	if c.Parameters.Flow.Depth != 0 {
		t.Errorf("expected depth=0, got %d", c.Parameters.Flow.Depth)
	}
}
