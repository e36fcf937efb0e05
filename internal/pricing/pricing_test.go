package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfitMargin(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		cost  int64
		want  string
	}{
		{"typical", 2000, 1200, "40"},
		{"repeating fraction", 3000, 2000, "33.33"},
		{"zero price", 0, 500, "0"},
		{"loss", 1000, 1500, "-50"},
		{"free cost", 999, 0, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitMargin(tt.price, tt.cost)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestProject_NoGrowth(t *testing.T) {
	p, err := Project(Input{MonthlyUnits: 100, Price: 1500, CostPrice: 900, Months: 3, GrowthRate: decimal.Zero})
	require.NoError(t, err)
	require.Len(t, p.Months, 3)

	for i, m := range p.Months {
		assert.Equal(t, i+1, m.Month)
		assert.True(t, m.Revenue.Equal(decimal.NewFromInt(150000)))
		assert.True(t, m.Profit.Equal(decimal.NewFromInt(60000)))
	}
	assert.True(t, p.TotalRevenue.Equal(decimal.NewFromInt(450000)))
	assert.True(t, p.TotalCost.Equal(decimal.NewFromInt(270000)))
	assert.True(t, p.Margin.Equal(decimal.NewFromInt(40)))
}

func TestProject_Compounds(t *testing.T) {
	p, err := Project(Input{MonthlyUnits: 100, Price: 100, CostPrice: 0, Months: 3, GrowthRate: decimal.RequireFromString("0.10")})
	require.NoError(t, err)

	assert.True(t, p.Months[0].Units.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.Months[1].Units.Equal(decimal.NewFromInt(110)))
	assert.True(t, p.Months[2].Units.Equal(decimal.NewFromInt(121)))
	assert.True(t, p.TotalRevenue.Equal(decimal.NewFromInt(33100)))
}

func TestProject_Validation(t *testing.T) {
	_, err := Project(Input{MonthlyUnits: 1, Price: 1, Months: 0})
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Project(Input{MonthlyUnits: 1, Price: 1, Months: MaxMonths + 1})
	assert.ErrorIs(t, err, ErrInvalidMonths)

	_, err = Project(Input{MonthlyUnits: -1, Price: 1, Months: 1})
	assert.ErrorIs(t, err, ErrNegativeInput)

	_, err = Project(Input{MonthlyUnits: 1, Price: 1, Months: 1, GrowthRate: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidGrowth)
}

func TestProjectScenarios_Ordered(t *testing.T) {
	all, err := ProjectScenarios(Input{MonthlyUnits: 50, Price: 2000, CostPrice: 800, Months: 12})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.True(t, all["conservative"].TotalRevenue.LessThan(all["moderate"].TotalRevenue))
	assert.True(t, all["moderate"].TotalRevenue.LessThan(all["optimistic"].TotalRevenue))
}

func TestScenarioByName(t *testing.T) {
	s, err := ScenarioByName("moderate")
	require.NoError(t, err)
	assert.True(t, s.GrowthRate.Equal(decimal.RequireFromString("0.05")))

	_, err = ScenarioByName("wild")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}
