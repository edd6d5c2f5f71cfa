// Package prompt composes the system prompt and the modular response
// fragments the assistant wraps around model output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tradepal/assistant/internal/convo"
)

const basePrompt = "You are TradePal, a friendly voice assistant for a personal finance companion app. " +
	"Keep replies short enough to speak aloud."

const structuralInstruction = "Structure every answer as: the immediate question first, " +
	"then one context-sensitive insight, then suggested next steps."

// SystemPrompt renders the conversation context as a natural-language system
// prompt. The output is deterministic for a given context: clauses are
// emitted in a fixed order and only when the underlying field is populated.
func SystemPrompt(c convo.Context) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)

	if len(c.RecentStocks) > 0 {
		fmt.Fprintf(&sb, " The user has recently mentioned these tickers: %s.", strings.Join(c.RecentStocks, ", "))
	}
	if len(c.RecentTopics) > 0 {
		fmt.Fprintf(&sb, " Recent topics of interest: %s.", strings.Join(c.RecentTopics, ", "))
	}

	if p := c.Preferences; p.RiskTolerance != "" || p.InvestmentStyle != "" || p.TimeHorizon != "" || len(p.AssetClasses) > 0 {
		sb.WriteString(" User preferences:")
		if p.RiskTolerance != "" {
			fmt.Fprintf(&sb, " %s risk tolerance;", p.RiskTolerance)
		}
		if p.InvestmentStyle != "" {
			fmt.Fprintf(&sb, " %s investment style;", p.InvestmentStyle)
		}
		if p.TimeHorizon != "" {
			fmt.Fprintf(&sb, " %s time horizon;", p.TimeHorizon)
		}
		if len(p.AssetClasses) > 0 {
			fmt.Fprintf(&sb, " prefers %s;", strings.Join(p.AssetClasses, ", "))
		}
	}

	pf := c.Parameters.Portfolio
	if pf.Stocks > 0 || pf.Bonds > 0 || pf.Alternatives > 0 || pf.Derivatives > 0 || pf.Cash != 100 {
		fmt.Fprintf(&sb, " Stated portfolio mix: %d%% stocks, %d%% bonds, %d%% cash, %d%% alternatives, %d%% derivatives.",
			pf.Stocks, pf.Bonds, pf.Cash, pf.Alternatives, pf.Derivatives)
	}

	m := c.Parameters.Market
	fmt.Fprintf(&sb, " Market view: %s volatility, %s trend, %s interest rates.",
		m.Volatility, m.Trend, m.RateEnvironment)

	prof := c.Parameters.Profile
	if prof.Experience != "" {
		fmt.Fprintf(&sb, " The user is a %s investor.", prof.Experience)
	}
	if prof.Age > 0 {
		fmt.Fprintf(&sb, " The user is %d years old.", prof.Age)
	}
	if len(prof.Goals) > 0 {
		fmt.Fprintf(&sb, " Financial goals: %s.", strings.Join(prof.Goals, ", "))
	}

	flow := c.Parameters.Flow
	if flow.CurrentModule != "" {
		fmt.Fprintf(&sb, " The conversation is currently about %s", humanModule(flow.CurrentModule))
		if flow.PreviousModule != "" && flow.PreviousModule != flow.CurrentModule {
			fmt.Fprintf(&sb, " (shifted from %s)", humanModule(flow.PreviousModule))
		}
		sb.WriteString(".")
	}
	if flow.Depth > 1 {
		fmt.Fprintf(&sb, " This is turn %d of an ongoing conversation; do not re-introduce yourself.", flow.Depth)
	}
	if len(flow.Constraints) > 0 {
		fmt.Fprintf(&sb, " Hard constraints from the user: avoid %s.", strings.Join(flow.Constraints, "; avoid "))
	}

	sb.WriteString(" ")
	sb.WriteString(structuralInstruction)
	return sb.String()
}

func humanModule(m convo.Module) string {
	switch m {
	case convo.ModulePortfolioAnalysis:
		return "portfolio analysis"
	case convo.ModuleStockResearch:
		return "stock research"
	case convo.ModuleMarketAnalysis:
		return "market analysis"
	case convo.ModulePlanning:
		return "financial planning"
	case convo.ModuleEducation:
		return "investing education"
	default:
		return string(m)
	}
}
