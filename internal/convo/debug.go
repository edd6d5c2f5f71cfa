package convo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dump renders the context as indented JSON for the /debug context command.
func Dump(c Context) string {
	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("context unavailable: %v", err)
	}
	return string(out)
}

// fieldSetter assigns one settable field from a raw string value, coercing
// the value to the field's type.
type fieldSetter func(c *Context, raw string) error

func setInt(target func(*Context) *int) fieldSetter {
	return func(c *Context, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", raw)
		}
		*target(c) = v
		return nil
	}
}

func setString(target func(*Context) *string) fieldSetter {
	return func(c *Context, raw string) error {
		*target(c) = raw
		return nil
	}
}

// settableFields is the explicit union of fields reachable through
// /debug set. Anything not listed here cannot be mutated from chat.
var settableFields = map[string]fieldSetter{
	"userPreferences.riskTolerance": setString(func(c *Context) *string {
		return (*string)(&c.Preferences.RiskTolerance)
	}),
	"userPreferences.investmentStyle": setString(func(c *Context) *string {
		return (*string)(&c.Preferences.InvestmentStyle)
	}),
	"userPreferences.timeHorizon": setString(func(c *Context) *string {
		return (*string)(&c.Preferences.TimeHorizon)
	}),
	"parameters.portfolioComposition.stocks": setInt(func(c *Context) *int {
		return &c.Parameters.Portfolio.Stocks
	}),
	"parameters.portfolioComposition.bonds": setInt(func(c *Context) *int {
		return &c.Parameters.Portfolio.Bonds
	}),
	"parameters.portfolioComposition.cash": setInt(func(c *Context) *int {
		return &c.Parameters.Portfolio.Cash
	}),
	"parameters.portfolioComposition.alternatives": setInt(func(c *Context) *int {
		return &c.Parameters.Portfolio.Alternatives
	}),
	"parameters.portfolioComposition.derivatives": setInt(func(c *Context) *int {
		return &c.Parameters.Portfolio.Derivatives
	}),
	"parameters.marketConditions.volatility": setString(func(c *Context) *string {
		return (*string)(&c.Parameters.Market.Volatility)
	}),
	"parameters.marketConditions.trend": setString(func(c *Context) *string {
		return (*string)(&c.Parameters.Market.Trend)
	}),
	"parameters.marketConditions.interestRateEnvironment": setString(func(c *Context) *string {
		return (*string)(&c.Parameters.Market.RateEnvironment)
	}),
	"parameters.userProfile.experienceLevel": setString(func(c *Context) *string {
		return (*string)(&c.Parameters.Profile.Experience)
	}),
	"parameters.userProfile.incomeLevel": setString(func(c *Context) *string {
		return (*string)(&c.Parameters.Profile.Income)
	}),
	"parameters.userProfile.age": setInt(func(c *Context) *int {
		return &c.Parameters.Profile.Age
	}),
	"parameters.conversationFlow.depth": setInt(func(c *Context) *int {
		return &c.Parameters.Flow.Depth
	}),
}

// Set assigns a settable field by its dotted JSON path, returning the
// updated context. Unknown paths and uncoercible values are errors.
func Set(c Context, path, value string) (Context, error) {
	setter, ok := settableFields[path]
	if !ok {
		return c, fmt.Errorf("unknown field %q (known fields: %s)", path, strings.Join(SettablePaths(), ", "))
	}
	next := c.clone()
	if err := setter(&next, value); err != nil {
		return c, fmt.Errorf("set %s: %w", path, err)
	}
	return next, nil
}

// SettablePaths lists every path accepted by Set, sorted.
func SettablePaths() []string {
	paths := make([]string, 0, len(settableFields))
	for p := range settableFields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
