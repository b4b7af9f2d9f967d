package chaos

import (
	"math"

	"github.com/bnema/arbor-gateway/internal/domain"
)

const (
	Steps    = 250
	StepSize = 0.01

	BaseSigma = 10.0
	BaseRho   = 28.0
	Beta      = 8.0 / 3.0

	AcousticGain    = 0.1
	TemperatureGain = 0.2

	StressBelow  = 2.0
	AnomalyAbove = 45.0
	OptimumZ     = 29.0

	RewardBase  = 50
	MinReward   = 10
	MaxReward   = 63
	StressPoint = 1

	pointsMask = 0x3F
)

type Point struct {
	X, Y, Z float64
}

type Result struct {
	Status domain.Status
	Points uint8
	Z      float64
}

// Packed returns the status byte as the firmware transmits it.
func (r Result) Packed() byte {
	return Pack(r.Status, r.Points)
}

// Score runs the simulation for one reading and applies the reward policy.
func Score(seed uint32, temperature float64, acoustic uint32) Result {
	final := integrate(seed, temperature, acoustic, nil)
	status, points := classify(final.Z)
	return Result{Status: status, Points: points, Z: final.Z}
}

// Trajectory returns the state after each integration step. Its last point is
// the state Score classifies.
func Trajectory(seed uint32, temperature float64, acoustic uint32) []Point {
	points := make([]Point, 0, Steps)
	integrate(seed, temperature, acoustic, func(p Point) {
		points = append(points, p)
	})
	return points
}

func InitialPoint(seed uint32) Point {
	return Point{
		X: float64(seed%20) - 9.9,
		Y: float64((seed>>8)%20) - 9.9,
		Z: float64((seed>>16)%30) + 10.0,
	}
}

func integrate(seed uint32, temperature float64, acoustic uint32, observe func(Point)) Point {
	sigma := BaseSigma + float64(float64(acoustic)*AcousticGain)
	rho := BaseRho + float64(temperature*TemperatureGain)

	p := InitialPoint(seed)
	for i := 0; i < Steps; i++ {
		dx := float64(sigma * (p.Y - p.X))
		dy := float64(p.X*(rho-p.Z)) - p.Y
		dz := float64(p.X*p.Y) - float64(Beta*p.Z)

		p.X = p.X + float64(dx*StepSize)
		p.Y = p.Y + float64(dy*StepSize)
		p.Z = p.Z + float64(dz*StepSize)

		if observe != nil {
			observe(p)
		}
	}
	return p
}

func classify(z float64) (domain.Status, uint8) {
	switch {
	case math.IsNaN(z) || math.IsInf(z, 0):
		// A diverged integration is never healthy.
		return domain.StatusAnomaly, 0
	case z < StressBelow:
		return domain.StatusStress, StressPoint
	case z > AnomalyAbove:
		return domain.StatusAnomaly, 0
	}

	// Deviation truncates toward zero before subtracting, matching the firmware.
	reward := RewardBase - int(math.Abs(z-OptimumZ))
	if reward < MinReward {
		reward = MinReward
	}
	if reward > MaxReward {
		reward = MaxReward
	}
	return domain.StatusHomeostasis, uint8(reward)
}

func Pack(status domain.Status, points uint8) byte {
	return byte(status)<<6 | points&pointsMask
}

func Unpack(b byte) (domain.Status, uint8) {
	return domain.Status(b >> 6), b & pointsMask
}
