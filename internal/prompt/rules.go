package prompt

import (
	"fmt"

	"github.com/tradepal/assistant/internal/convo"
)

// investmentRule checks one static threshold against the context and, when
// it fires, returns a warning string. Rules are independent: every rule
// that fires contributes its warning, and no conflicts are resolved.
type investmentRule struct {
	name  string
	check func(c convo.Context) (string, bool)
}

var investmentRules = []investmentRule{
	{"stock-concentration", func(c convo.Context) (string, bool) {
		if c.Parameters.Portfolio.Stocks > 80 {
			return fmt.Sprintf("Your portfolio is %d%% stocks; that level of concentration leaves little diversification to cushion a downturn.",
				c.Parameters.Portfolio.Stocks), true
		}
		return "", false
	}},
	{"bond-concentration", func(c convo.Context) (string, bool) {
		if c.Parameters.Portfolio.Bonds > 80 {
			return fmt.Sprintf("At %d%% bonds your portfolio may struggle to outpace inflation over time.",
				c.Parameters.Portfolio.Bonds), true
		}
		return "", false
	}},
	{"cash-drag", func(c convo.Context) (string, bool) {
		if c.Parameters.Portfolio.Cash > 50 {
			return fmt.Sprintf("Holding %d%% in cash means a large share of your money is losing purchasing power to inflation.",
				c.Parameters.Portfolio.Cash), true
		}
		return "", false
	}},
	{"age-bond-mismatch", func(c convo.Context) (string, bool) {
		age := c.Parameters.Profile.Age
		if age <= 0 {
			return "", false
		}
		recommended := age
		if recommended > 70 {
			recommended = 70
		}
		bonds := c.Parameters.Portfolio.Bonds
		if bonds < recommended-20 {
			return fmt.Sprintf("A common rule of thumb at age %d suggests roughly %d%% in bonds; you hold %d%%, which skews notably riskier.",
				age, recommended, bonds), true
		}
		if bonds > recommended+20 {
			return fmt.Sprintf("A common rule of thumb at age %d suggests roughly %d%% in bonds; you hold %d%%, which skews notably more conservative.",
				age, recommended, bonds), true
		}
		return "", false
	}},
	{"volatility-exposure", func(c convo.Context) (string, bool) {
		if c.Parameters.Market.Volatility == convo.VolatilityHigh && c.Parameters.Portfolio.Stocks > 70 {
			return fmt.Sprintf("With volatility running high, a %d%% stock allocation will feel every swing.",
				c.Parameters.Portfolio.Stocks), true
		}
		return "", false
	}},
	{"bearish-cash-buffer", func(c convo.Context) (string, bool) {
		if c.Parameters.Market.Trend == convo.TrendBearish && c.Parameters.Portfolio.Cash < 20 {
			return fmt.Sprintf("In a bearish market, %d%% cash leaves a thin buffer for opportunities or emergencies.",
				c.Parameters.Portfolio.Cash), true
		}
		return "", false
	}},
	{"derivatives-risk", func(c convo.Context) (string, bool) {
		if c.Parameters.Portfolio.Derivatives > 15 {
			return fmt.Sprintf("Derivatives at %d%% of your portfolio carry leverage and expiry risk most investors should cap well below that.",
				c.Parameters.Portfolio.Derivatives), true
		}
		return "", false
	}},
}

// ApplyInvestmentRules evaluates every rule against the context and returns
// the warnings for all rules that fired, in rule order.
func ApplyInvestmentRules(c convo.Context) []string {
	var insights []string
	for _, rule := range investmentRules {
		if msg, ok := rule.check(c); ok {
			insights = append(insights, msg)
		}
	}
	return insights
}
