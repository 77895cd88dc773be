package rule_engine

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Cable sizing per the Canadian Electrical Code: motor full load current
// from Table 44, copper conductor ampacity from Table 2 (75C column), and
// a three-phase voltage drop check with iterative upsizing.

type motorFlcEntry struct {
	Hp  float64
	Flc float64
}

// CEC Table 44, three phase AC motors at 575V.
var motorFlc575V = []motorFlcEntry{
	{1, 1.4},
	{1.5, 2.0},
	{2, 2.7},
	{3, 3.9},
	{5, 6.1},
	{7.5, 9.0},
	{10, 11.0},
	{15, 17.0},
	{20, 22.0},
	{25, 27.0},
	{30, 32.0},
	{40, 41.0},
	{50, 52.0},
	{60, 62.0},
	{75, 77.0},
	{100, 99.0},
	{125, 125.0},
	{150, 144.0},
	{200, 192.0},
}

type conductorEntry struct {
	Size      string
	Ampacity  float64
	Impedance float64 // ohms/km at 75C, approximate
}

// CEC Table 2, copper, not more than 3 conductors, 75C column.
var copperConductors = []conductorEntry{
	{"14 AWG", 20, 10.5},
	{"12 AWG", 25, 6.6},
	{"10 AWG", 35, 4.1},
	{"8 AWG", 50, 2.6},
	{"6 AWG", 65, 1.6},
	{"4 AWG", 85, 1.0},
	{"3 AWG", 100, 0.8},
	{"2 AWG", 115, 0.6},
	{"1 AWG", 130, 0.5},
	{"1/0 AWG", 150, 0.4},
	{"2/0 AWG", 175, 0.3},
	{"3/0 AWG", 200, 0.25},
	{"4/0 AWG", 230, 0.2},
	{"250 kcmil", 255, 0.17},
	{"350 kcmil", 310, 0.12},
	{"500 kcmil", 380, 0.09},
	{"750 kcmil", 475, 0.06},
}

type CableSizing struct {
	CableSize          string
	Flc                float64
	MinAmpacity        float64
	CableAmpacity      float64
	VoltageDropPercent float64
	VoltageDropVolts   float64
	IsUpsized          bool
}

var ErrLoadTooHigh = errors.New("load too high for standard cables")

// MotorFullLoadCurrent returns the FLC of the next standard motor size at
// or above the given horsepower.
func MotorFullLoadCurrent(hp float64) float64 {
	for _, entry := range motorFlc575V {
		if entry.Hp >= hp {
			return entry.Flc
		}
	}
	if hp > 200 {
		// rough extrapolation for very large motors
		return hp * 0.96
	}
	return 0
}

// Motors require conductors rated for 125% of FLC (CEC 28-106).
func minimumAmpacity(flc float64) float64 {
	return flc * 1.25
}

func selectConductor(minAmpacity float64) (int, bool) {
	for i, entry := range copperConductors {
		if entry.Ampacity >= minAmpacity {
			return i, true
		}
	}
	return 0, false
}

// voltageDropPercent computes the three-phase voltage drop
// VD = sqrt(3) * I * Z * L / 1000 as a percentage of the system voltage,
// rounded to two decimals. The running current is the FLC, not the 125%
// design ampacity.
func voltageDropPercent(lengthMeters, current float64, conductor conductorEntry, voltage float64) float64 {
	vdVolts := math.Sqrt(3) * current * conductor.Impedance * lengthMeters / 1000
	vdPercent := vdVolts / voltage * 100
	return math.Round(vdPercent*100) / 100
}

// SizeCable selects the smallest conductor meeting the motor's ampacity
// requirement, then upsizes until the voltage drop is within the limit.
func SizeCable(hp, lengthMeters float64, voltageStr string, maxVdPercent float64) (CableSizing, error) {
	if maxVdPercent <= 0 {
		maxVdPercent = 3.0
	}
	voltage := 480.0
	if strings.Contains(voltageStr, "600") {
		voltage = 600.0
	}

	flc := MotorFullLoadCurrent(hp)
	minAmpacity := minimumAmpacity(flc)

	baseIdx, ok := selectConductor(minAmpacity)
	if !ok {
		return CableSizing{}, ErrLoadTooHigh
	}

	idx := baseIdx
	vdPercent := voltageDropPercent(lengthMeters, flc, copperConductors[idx], voltage)
	for vdPercent > maxVdPercent && idx < len(copperConductors)-1 {
		idx++
		vdPercent = voltageDropPercent(lengthMeters, flc, copperConductors[idx], voltage)
	}

	selected := copperConductors[idx]
	return CableSizing{
		CableSize:          selected.Size,
		Flc:                flc,
		MinAmpacity:        minAmpacity,
		CableAmpacity:      selected.Ampacity,
		VoltageDropPercent: vdPercent,
		VoltageDropVolts:   vdPercent / 100 * voltage,
		IsUpsized:          idx > baseIdx,
	}, nil
}
