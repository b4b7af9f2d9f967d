package chaos

import (
	"math"
	"testing"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreReferenceVectors(t *testing.T) {
	tests := []struct {
		name        string
		seed        uint32
		temperature float64
		acoustic    uint32
		wantZ       float64
		wantStatus  domain.Status
		wantPoints  uint8
	}{
		{name: "seed 42", seed: 42, temperature: 20.0, acoustic: 3, wantZ: 25.361435934529894, wantStatus: domain.StatusHomeostasis, wantPoints: 47},
		{name: "zero seed", seed: 0, temperature: 0, acoustic: 0, wantZ: 14.402499480850922, wantStatus: domain.StatusHomeostasis, wantPoints: 36},
		{name: "near optimum", seed: 0x00c0ffee, temperature: 22, acoustic: 4, wantZ: 30.096828580610833, wantStatus: domain.StatusHomeostasis, wantPoints: 49},
		{name: "far from optimum", seed: 99, temperature: 30, acoustic: 1, wantZ: 40.30399691704514, wantStatus: domain.StatusHomeostasis, wantPoints: 39},
		{name: "anomaly", seed: 7, temperature: 80, acoustic: 0, wantZ: 45.445450935942816, wantStatus: domain.StatusAnomaly, wantPoints: 0},
		{name: "stress", seed: 42, temperature: -128, acoustic: 3, wantZ: 0.5698813777583585, wantStatus: domain.StatusStress, wantPoints: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.seed, tt.temperature, tt.acoustic)
			assert.Equal(t, tt.wantZ, got.Z)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantPoints, got.Points)
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	inputs := []struct {
		seed     uint32
		temp     float64
		acoustic uint32
	}{
		{1, 25, 10},
		{0xdeadbeef, -5, 200},
		{123456, 15, 5},
		{0xffffffff, 127, 255},
	}

	for _, in := range inputs {
		first := Score(in.seed, in.temp, in.acoustic)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, Score(in.seed, in.temp, in.acoustic))
		}
	}
}

func TestTrajectoryEndsAtScoredPoint(t *testing.T) {
	points := Trajectory(42, 20.0, 3)
	require.Len(t, points, Steps)

	result := Score(42, 20.0, 3)
	assert.Equal(t, result.Z, points[len(points)-1].Z)
}

func TestInitialPointExtraction(t *testing.T) {
	// 0x00050311 = 328465: 328465%20 = 5, 0x0503%20 = 3, 0x05%30 = 5.
	p := InitialPoint(0x00050311)
	x, y := 5.0, 3.0
	assert.Equal(t, x-9.9, p.X)
	assert.Equal(t, y-9.9, p.Y)
	assert.Equal(t, 15.0, p.Z)
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		z          float64
		wantStatus domain.Status
		wantPoints uint8
	}{
		{name: "just below stress edge", z: 1.999, wantStatus: domain.StatusStress, wantPoints: 1},
		{name: "stress edge is homeostasis", z: 2.0, wantStatus: domain.StatusHomeostasis, wantPoints: 23},
		{name: "optimum", z: 29.0, wantStatus: domain.StatusHomeostasis, wantPoints: 50},
		{name: "fraction truncates toward zero", z: 29.0 + 0.999, wantStatus: domain.StatusHomeostasis, wantPoints: 50},
		{name: "anomaly edge is homeostasis", z: 45.0, wantStatus: domain.StatusHomeostasis, wantPoints: 34},
		{name: "just above anomaly edge", z: 45.001, wantStatus: domain.StatusAnomaly, wantPoints: 0},
		{name: "diverged NaN", z: math.NaN(), wantStatus: domain.StatusAnomaly, wantPoints: 0},
		{name: "diverged positive infinity", z: math.Inf(1), wantStatus: domain.StatusAnomaly, wantPoints: 0},
		{name: "diverged negative infinity", z: math.Inf(-1), wantStatus: domain.StatusAnomaly, wantPoints: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, points := classify(tt.z)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantPoints, points)
		})
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusHomeostasis, domain.StatusStress, domain.StatusAnomaly} {
		for points := uint8(0); points <= 63; points++ {
			gotStatus, gotPoints := Unpack(Pack(status, points))
			require.Equal(t, status, gotStatus)
			require.Equal(t, points, gotPoints)
		}
	}
}

func TestPackedStatusByteLayout(t *testing.T) {
	assert.Equal(t, byte(0b10_000000), Pack(domain.StatusAnomaly, 0))
	assert.Equal(t, byte(0b01_000001), Result{Status: domain.StatusStress, Points: 1}.Packed())
	assert.Equal(t, byte(0b00_101111), Pack(domain.StatusHomeostasis, 47))
}

func TestForecastHaltsOnAnomaly(t *testing.T) {
	yield := Forecast([]Sample{
		{Seed: 42, Temperature: 20, Acoustic: 3},
		{Seed: 42, Temperature: -128, Acoustic: 3},
		{Seed: 7, Temperature: 80, Acoustic: 0},
		{Seed: 0, Temperature: 0, Acoustic: 0},
	})

	assert.Equal(t, 47+1, yield.Points)
	assert.Equal(t, 1, yield.Stressed)
	assert.Equal(t, 2, yield.HaltedAt)
	assert.Equal(t, 3, yield.Samples)
}

func TestScoreNonFiniteTemperatureIsAnomaly(t *testing.T) {
	for _, temperature := range []float64{math.NaN(), math.Inf(1), 1e6, 1e300} {
		result := Score(1, temperature, 0)
		assert.Equal(t, domain.StatusAnomaly, result.Status, "temperature %v", temperature)
		assert.Zero(t, result.Points, "temperature %v", temperature)
	}
}

func TestForecastHaltsOnDivergence(t *testing.T) {
	yield := Forecast([]Sample{
		{Seed: 42, Temperature: 20, Acoustic: 3},
		{Seed: 1, Temperature: 1e300, Acoustic: 0},
		{Seed: 42, Temperature: 20, Acoustic: 3},
	})

	assert.Equal(t, 47, yield.Points)
	assert.Equal(t, 1, yield.HaltedAt)
	assert.Equal(t, 2, yield.Samples)
}
