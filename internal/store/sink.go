package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/swimscore/internal/core"
)

// sink implements core.Sink on one transaction for one meet.
type sink struct {
	q      DBTX
	meetID string
	now    func() time.Time
}

// getOrCreate inserts a row unless its natural key exists, then returns
// the stored id.
func (s *sink) getOrCreate(ctx context.Context, insert, selectID string, insertArgs []any, selectArgs ...any) (string, error) {
	if _, err := s.q.ExecContext(ctx, insert, insertArgs...); err != nil {
		return "", err
	}
	var id string
	if err := s.q.QueryRowContext(ctx, selectID, selectArgs...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *sink) Team(ctx context.Context, code, name string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`INSERT INTO teams (id, meet_id, code, name) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (meet_id, code) DO NOTHING`,
		`SELECT id FROM teams WHERE meet_id = $1 AND code = $2`,
		[]any{uuid.NewString(), s.meetID, code, name},
		s.meetID, code)
	if err != nil {
		return "", fmt.Errorf("team %s: %w", code, err)
	}
	return id, nil
}

func (s *sink) Participant(ctx context.Context, teamID string, p core.Participant) (string, error) {
	key := p.NaturalKey()
	id, err := s.getOrCreate(ctx,
		`INSERT INTO participants (id, meet_id, team_id, natural_key, first_name, last_name, gender, age)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (meet_id, natural_key) DO NOTHING`,
		`SELECT id FROM participants WHERE meet_id = $1 AND natural_key = $2`,
		[]any{uuid.NewString(), s.meetID, teamID, key, p.FirstName, p.LastName, string(p.Gender), p.Age},
		s.meetID, key)
	if err != nil {
		return "", fmt.Errorf("participant %s: %w", p.FullName, err)
	}
	return id, nil
}

func (s *sink) Event(ctx context.Context, ev core.EventDescriptor) (string, error) {
	name := ev.DisplayLabel()
	id, err := s.getOrCreate(ctx,
		`INSERT INTO events (id, meet_id, number, name, event_key, kind, distance, stroke, gender, is_relay, min_age, max_age)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (meet_id, name) DO NOTHING`,
		`SELECT id FROM events WHERE meet_id = $1 AND name = $2`,
		[]any{uuid.NewString(), s.meetID, ev.Number, name, ev.EventKey(), ev.Kind.String(),
			ev.Distance, string(ev.Stroke), string(ev.Gender), ev.Relay, ev.MinAge, ev.MaxAge},
		s.meetID, name)
	if err != nil {
		return "", fmt.Errorf("event %s: %w", name, err)
	}
	return id, nil
}

func (s *sink) AppendResult(ctx context.Context, participantID, eventID string, r core.Result) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO results (id, participant_id, event_id, prelim_value, swim_off_value, final_value,
		   prelim_points, swim_off_points, final_points, best_points, is_disqualified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.NewString(), participantID, eventID, r.Prelim, r.SwimOff, r.Final,
		r.PrelimPoints, r.SwimOffPoints, r.FinalPoints, r.BestPoints, r.Disqualified, s.now().Unix())
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}
