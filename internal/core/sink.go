package core

import "context"

// Scorer converts a performance into points. Implementations must be safe
// for concurrent use and must never fail: a missing table scores 0.
type Scorer interface {
	Points(eventKey string, value float64, age, maxAge *int) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(eventKey string, value float64, age, maxAge *int) float64

// Points calls f.
func (f ScorerFunc) Points(eventKey string, value float64, age, maxAge *int) float64 {
	return f(eventKey, value, age, maxAge)
}

// Sink receives normalized records for persistence. Every method is an
// idempotent get-or-create keyed by the meet the sink is bound to plus a
// natural key, except AppendResult which adds one result row. The caller
// owns the transaction around a whole file.
type Sink interface {
	Team(ctx context.Context, code, name string) (string, error)
	Participant(ctx context.Context, teamID string, p Participant) (string, error)
	Event(ctx context.Context, ev EventDescriptor) (string, error)
	AppendResult(ctx context.Context, participantID, eventID string, r Result) error
}

// persist writes one result through the sink.
func persist(ctx context.Context, sink Sink, r Result) error {
	teamID, err := sink.Team(ctx, r.Participant.TeamCode, r.Participant.TeamName)
	if err != nil {
		return err
	}
	participantID, err := sink.Participant(ctx, teamID, r.Participant)
	if err != nil {
		return err
	}
	eventID, err := sink.Event(ctx, r.Event)
	if err != nil {
		return err
	}
	return sink.AppendResult(ctx, participantID, eventID, r)
}
