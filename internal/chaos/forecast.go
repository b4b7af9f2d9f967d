package chaos

import "github.com/bnema/arbor-gateway/internal/domain"

type Sample struct {
	Seed        uint32
	Temperature float64
	Acoustic    uint32
}

type Yield struct {
	Points   int
	Samples  int
	Stressed int
	// HaltedAt is the index of the first anomalous sample, or -1.
	HaltedAt int
}

// Forecast accumulates the reward a device would earn over a series of
// readings. An anomaly halts emission for the rest of the series.
func Forecast(samples []Sample) Yield {
	yield := Yield{HaltedAt: -1}
	for i, sample := range samples {
		result := Score(sample.Seed, sample.Temperature, sample.Acoustic)
		yield.Samples++
		if result.Status == domain.StatusAnomaly {
			yield.HaltedAt = i
			return yield
		}
		if result.Status == domain.StatusStress {
			yield.Stressed++
		}
		yield.Points += int(result.Points)
	}
	return yield
}
