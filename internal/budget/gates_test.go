package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func figures(level ControlLevel, monthPlan, monthActual, ytdPlan, ytdActual int64) PlanFigures {
	return PlanFigures{
		GroupCode:    "G-SALES",
		ControlLevel: level,
		MonthPlan:    decimal.NewFromInt(monthPlan),
		MonthActual:  decimal.NewFromInt(monthActual),
		YTDPlan:      decimal.NewFromInt(ytdPlan),
		YTDActual:    decimal.NewFromInt(ytdActual),
	}
}

func TestMonthlyGate(t *testing.T) {
	tests := []struct {
		name       string
		figures    PlanFigures
		amount     int64
		wantStatus GateStatus
		wantRemain int64
	}{
		{
			name:       "within remaining passes",
			figures:    figures(ControlHard, 10_000_000, 9_000_000, 0, 0),
			amount:     500_000,
			wantStatus: GatePass,
			wantRemain: 1_000_000,
		},
		{
			name:       "exactly remaining passes",
			figures:    figures(ControlHard, 10_000_000, 9_000_000, 0, 0),
			amount:     1_000_000,
			wantStatus: GatePass,
			wantRemain: 1_000_000,
		},
		{
			name:       "hard breach blocks",
			figures:    figures(ControlHard, 10_000_000, 9_500_000, 0, 0),
			amount:     1_000_000,
			wantStatus: GateBlock,
			wantRemain: 500_000,
		},
		{
			name:       "soft breach warns",
			figures:    figures(ControlSoft, 10_000_000, 9_500_000, 0, 0),
			amount:     1_000_000,
			wantStatus: GateWarn,
			wantRemain: 500_000,
		},
		{
			name:       "overspent group blocks any amount",
			figures:    figures(ControlHard, 10_000_000, 11_000_000, 0, 0),
			amount:     1,
			wantStatus: GateBlock,
			wantRemain: -1_000_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyGate(tt.figures, decimal.NewFromInt(tt.amount))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.True(t, got.Remaining.Equal(decimal.NewFromInt(tt.wantRemain)),
				"remaining = %s", got.Remaining)
			if tt.wantStatus == GatePass {
				assert.Empty(t, got.Message)
			} else {
				assert.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestYTDGate(t *testing.T) {
	tests := []struct {
		name       string
		figures    PlanFigures
		amount     int64
		wantStatus GateStatus
	}{
		{
			name:       "cumulative within plan passes",
			figures:    figures(ControlHard, 0, 0, 120_000_000, 100_000_000),
			amount:     20_000_000,
			wantStatus: GatePass,
		},
		{
			name:       "hard cumulative breach blocks",
			figures:    figures(ControlHard, 0, 0, 120_000_000, 100_000_000),
			amount:     20_000_001,
			wantStatus: GateBlock,
		},
		{
			name:       "soft cumulative breach warns",
			figures:    figures(ControlSoft, 0, 0, 120_000_000, 100_000_000),
			amount:     25_000_000,
			wantStatus: GateWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YTDGate(tt.figures, decimal.NewFromInt(tt.amount))
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}
