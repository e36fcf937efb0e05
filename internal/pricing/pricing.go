// Package pricing computes profit margins and month-by-month sales projections.
// Money is in minor currency units; all arithmetic goes through decimal.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

const MaxMonths = 60

var (
	ErrInvalidMonths   = errors.New("months must be between 1 and 60")
	ErrNegativeInput   = errors.New("units, price and cost must not be negative")
	ErrInvalidGrowth   = errors.New("growth rate must be greater than -100%")
	ErrUnknownScenario = errors.New("unknown scenario")
)

var hundred = decimal.NewFromInt(100)

// ProfitMargin is (price - cost) / price * 100 rounded to two places; a zero price yields zero
func ProfitMargin(price, cost int64) decimal.Decimal {
	if price == 0 {
		return decimal.Zero
	}
	p := decimal.NewFromInt(price)
	return p.Sub(decimal.NewFromInt(cost)).Div(p).Mul(hundred).Round(2)
}

// Scenario is a named monthly growth rate
type Scenario struct {
	Name       string          `json:"name"`
	GrowthRate decimal.Decimal `json:"growth_rate"`
}

// Scenarios are the static projection presets, slowest first
var Scenarios = []Scenario{
	{Name: "conservative", GrowthRate: decimal.RequireFromString("0.02")},
	{Name: "moderate", GrowthRate: decimal.RequireFromString("0.05")},
	{Name: "optimistic", GrowthRate: decimal.RequireFromString("0.10")},
}

func ScenarioByName(name string) (Scenario, error) {
	for _, s := range Scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, ErrUnknownScenario
}

type Input struct {
	MonthlyUnits int64           `json:"monthly_units"`
	Price        int64           `json:"price"`
	CostPrice    int64           `json:"cost_price"`
	Months       int             `json:"months"`
	GrowthRate   decimal.Decimal `json:"growth_rate"`
}

type Month struct {
	Month   int             `json:"month"`
	Units   decimal.Decimal `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
	Margin  decimal.Decimal `json:"margin"`
}

type Projection struct {
	Input        Input           `json:"input"`
	Months       []Month         `json:"months"`
	TotalUnits   decimal.Decimal `json:"total_units"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	Margin       decimal.Decimal `json:"margin"`
}

func (in Input) validate() error {
	if in.Months < 1 || in.Months > MaxMonths {
		return ErrInvalidMonths
	}
	if in.MonthlyUnits < 0 || in.Price < 0 || in.CostPrice < 0 {
		return ErrNegativeInput
	}
	if in.GrowthRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return ErrInvalidGrowth
	}
	return nil
}

// Project compounds unit sales monthly: month m sells monthly_units * (1+g)^(m-1).
// Units are kept fractional; money is rounded to whole minor units per month.
func Project(in Input) (*Projection, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	price := decimal.NewFromInt(in.Price)
	cost := decimal.NewFromInt(in.CostPrice)
	factor := decimal.NewFromInt(1).Add(in.GrowthRate)
	margin := ProfitMargin(in.Price, in.CostPrice)

	out := &Projection{
		Input:        in,
		Months:       make([]Month, 0, in.Months),
		TotalUnits:   decimal.Zero,
		TotalRevenue: decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalProfit:  decimal.Zero,
	}

	units := decimal.NewFromInt(in.MonthlyUnits)
	for m := 1; m <= in.Months; m++ {
		revenue := units.Mul(price).Round(0)
		monthCost := units.Mul(cost).Round(0)
		profit := revenue.Sub(monthCost)

		out.Months = append(out.Months, Month{
			Month:   m,
			Units:   units.Round(2),
			Revenue: revenue,
			Cost:    monthCost,
			Profit:  profit,
			Margin:  margin,
		})
		out.TotalUnits = out.TotalUnits.Add(units)
		out.TotalRevenue = out.TotalRevenue.Add(revenue)
		out.TotalCost = out.TotalCost.Add(monthCost)
		out.TotalProfit = out.TotalProfit.Add(profit)

		units = units.Mul(factor)
	}

	out.TotalUnits = out.TotalUnits.Round(2)
	if out.TotalRevenue.IsZero() {
		out.Margin = decimal.Zero
	} else {
		out.Margin = out.TotalProfit.Div(out.TotalRevenue).Mul(hundred).Round(2)
	}
	return out, nil
}

// ProjectScenarios runs Project once per preset with the same base input
func ProjectScenarios(in Input) (map[string]*Projection, error) {
	out := make(map[string]*Projection, len(Scenarios))
	for _, s := range Scenarios {
		in.GrowthRate = s.GrowthRate
		p, err := Project(in)
		if err != nil {
			return nil, err
		}
		out[s.Name] = p
	}
	return out, nil
}
