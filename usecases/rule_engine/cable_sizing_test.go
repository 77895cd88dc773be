package rule_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMotorFullLoadCurrent(t *testing.T) {
	assert.Equal(t, 1.4, MotorFullLoadCurrent(1))
	assert.Equal(t, 52.0, MotorFullLoadCurrent(50))
	// between standard sizes rounds up to the next entry
	assert.Equal(t, 52.0, MotorFullLoadCurrent(45))
	assert.Equal(t, 192.0, MotorFullLoadCurrent(200))
	// beyond the table, extrapolated
	assert.Equal(t, 300*0.96, MotorFullLoadCurrent(300))
}

func TestSizeCable_SelectsSmallestSufficientConductor(t *testing.T) {
	// 50 hp at 600V: FLC 52A, min ampacity 65A, 6 AWG carries exactly 65A.
	sizing, err := SizeCable(50, 50, "600V", 3.0)
	require.NoError(t, err)

	assert.Equal(t, "6 AWG", sizing.CableSize)
	assert.Equal(t, 52.0, sizing.Flc)
	assert.Equal(t, 65.0, sizing.MinAmpacity)
	assert.Equal(t, 65.0, sizing.CableAmpacity)
	assert.False(t, sizing.IsUpsized)
	assert.LessOrEqual(t, sizing.VoltageDropPercent, 3.0)
}

func TestSizeCable_UpsizesForVoltageDrop(t *testing.T) {
	// Over a long run the base conductor exceeds the drop limit and the
	// sizing walks up the table.
	short, err := SizeCable(50, 50, "600V", 3.0)
	require.NoError(t, err)
	long, err := SizeCable(50, 400, "600V", 3.0)
	require.NoError(t, err)

	assert.False(t, short.IsUpsized)
	assert.True(t, long.IsUpsized)
	assert.NotEqual(t, short.CableSize, long.CableSize)
	assert.LessOrEqual(t, long.VoltageDropPercent, 3.0)
	// ampacity requirement is unchanged by the drop-driven upsizing
	assert.Equal(t, short.MinAmpacity, long.MinAmpacity)
	assert.Greater(t, long.CableAmpacity, short.CableAmpacity)
}

func TestSizeCable_VoltageParsing(t *testing.T) {
	at600, err := SizeCable(50, 100, "600V", 3.0)
	require.NoError(t, err)
	at480, err := SizeCable(50, 100, "480V", 3.0)
	require.NoError(t, err)

	// the same drop in volts is a bigger percentage of a lower system voltage
	assert.GreaterOrEqual(t, at480.VoltageDropPercent, at600.VoltageDropPercent)
}

func TestSizeCable_DefaultDropLimit(t *testing.T) {
	explicit, err := SizeCable(50, 200, "600V", 3.0)
	require.NoError(t, err)
	defaulted, err := SizeCable(50, 200, "600V", 0)
	require.NoError(t, err)

	assert.Equal(t, explicit, defaulted)
}

func TestSizeCable_LoadTooHigh(t *testing.T) {
	// 500 hp extrapolates to 480A FLC, 600A min ampacity, above the largest
	// conductor in the table.
	_, err := SizeCable(500, 50, "600V", 3.0)
	assert.ErrorIs(t, err, ErrLoadTooHigh)
}
