// Package store persists the peripheral CRUD entities (price alerts,
// saving plans, goals) as JSON files under named keys.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertDirection says which side of the target price triggers an alert.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// PriceAlert watches a symbol against a target price. Executed is flipped
// by the simulated trade action and never cleared.
type PriceAlert struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
	Direction   AlertDirection  `json:"direction"`
	Quantity    decimal.Decimal `json:"quantity"`
	Executed    bool            `json:"executed"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SavingPlan is a recurring monthly contribution toward a target amount.
type SavingPlan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	SavedSoFar    decimal.Decimal `json:"savedSoFar"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Goal is a one-off financial goal with a deadline.
type Goal struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	SavedAmount  decimal.Decimal `json:"savedAmount"`
	Deadline     time.Time       `json:"deadline"`
	CreatedAt    time.Time       `json:"createdAt"`
}
