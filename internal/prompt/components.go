package prompt

import (
	"fmt"
	"strings"

	"github.com/tradepal/assistant/internal/convo"
)

// Components are the modular fragments the session wraps around a model
// reply: a greeting, a personalization line, a disclaimer, and any rule
// derived insights.
type Components struct {
	Greeting        string
	Personalization string
	Disclaimer      string
	Insights        []string
}

const (
	disclaimerGeneral = "This is general information, not financial advice."
	disclaimerAdvice  = "This is educational content only, not investment advice. " +
		"Consider speaking with a licensed financial advisor before acting."
)

var adviceTriggers = []string{"buy", "sell", "invest in", "recommend", "should i put"}

// Compose derives the response fragments from the context and the raw user
// query. Each fragment is computed independently.
func Compose(c convo.Context, query string) Components {
	return Components{
		Greeting:        greeting(c),
		Personalization: personalization(c),
		Disclaimer:      disclaimer(query),
		Insights:        ApplyInvestmentRules(c),
	}
}

func greeting(c convo.Context) string {
	if c.Parameters.Flow.Depth <= 1 {
		return "Hi, I'm TradePal."
	}
	return "Following up on that,"
}

func personalization(c convo.Context) string {
	var parts []string
	if rt := c.Preferences.RiskTolerance; rt != "" {
		parts = append(parts, fmt.Sprintf("keeping your %s risk tolerance in mind", rt))
	}
	if exp := c.Parameters.Profile.Experience; exp != "" {
		parts = append(parts, fmt.Sprintf("explained for a %s investor", exp))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

func disclaimer(query string) string {
	lower := strings.ToLower(query)
	for _, trigger := range adviceTriggers {
		if strings.Contains(lower, trigger) {
			return disclaimerAdvice
		}
	}
	return disclaimerGeneral
}
