package domain

import "fmt"

type Status uint8

const (
	StatusHomeostasis Status = 0
	StatusStress      Status = 1
	StatusAnomaly     Status = 2

	// StatusTamper is only ever seen on the wire; records carry it as a flag.
	StatusTamper Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusHomeostasis:
		return "homeostasis"
	case StatusStress:
		return "stress"
	case StatusAnomaly:
		return "anomaly"
	case StatusTamper:
		return "tamper"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type TelemetryRecord struct {
	DeviceID       DeviceID `json:"device_id" cbor:"1,keyasint"`
	RelayID        string   `json:"relay_id,omitempty" cbor:"2,keyasint,omitempty"`
	RSSI           int      `json:"rssi" cbor:"3,keyasint"`
	VoltageMV      uint16   `json:"voltage_mv" cbor:"4,keyasint"`
	TemperatureC   int8     `json:"temperature_c" cbor:"5,keyasint"`
	AcousticEvents uint8    `json:"acoustic_events" cbor:"6,keyasint"`
	ElapsedSeconds uint16   `json:"elapsed_seconds" cbor:"7,keyasint"`
	GrowthPoints   uint8    `json:"growth_points" cbor:"8,keyasint"`
	MeshHops       uint8    `json:"mesh_hops" cbor:"9,keyasint"`
	Status         Status   `json:"status" cbor:"10,keyasint"`
	Tamper         bool     `json:"tamper,omitempty" cbor:"11,keyasint,omitempty"`
	ScoreVerified  bool     `json:"score_verified" cbor:"12,keyasint"`
}

// NeedsAlert reports whether the record must reach the alerting collaborator.
func (r TelemetryRecord) NeedsAlert() bool {
	return r.Tamper || r.Status == StatusAnomaly
}
