package ports

// Metrics receives outcome counts from the application services. Reasons and
// operations are short label values, never payload data.
type Metrics interface {
	RecordDecoded(relay string)
	RecordDropped(reason string)
	ScoreMismatch()
	AlertRaised()
	KeyRotated()
	GraceCleared()
	TransportResult(operation string, err error)
}

type NopMetrics struct{}

func (NopMetrics) RecordDecoded(string)          {}
func (NopMetrics) RecordDropped(string)          {}
func (NopMetrics) ScoreMismatch()                {}
func (NopMetrics) AlertRaised()                  {}
func (NopMetrics) KeyRotated()                   {}
func (NopMetrics) GraceCleared()                 {}
func (NopMetrics) TransportResult(string, error) {}
