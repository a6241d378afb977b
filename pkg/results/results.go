// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package results

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

// Result is one stored tag read
type Result struct {
	ID         int64
	TagID      int
	Name       string
	FoxTimes   [foxproto.FieldUnits]string
	Finish     string
	Secrets    string
	DetectedAt time.Time
}

// AddResult stores a tag record. Fox times are the event start plus the
// record's relative timestamps; the name comes from the participant table.
func (s *Store) AddResult(rec foxproto.TagRecord, start time.Time) (Result, error) {
	name, err := s.ParticipantName(rec.TagID)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		TagID:      rec.TagID,
		Name:       name,
		Secrets:    rec.Match,
		DetectedAt: rec.DetectedAt,
	}
	for j, t := range rec.FoxTimes(start) {
		r.FoxTimes[j] = t.Format(foxproto.TimeLayout)
	}

	res, err := s.db.Exec(`
		INSERT INTO results (tag_id, name, fox1, fox2, fox3, fox4, fox5, secrets, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TagID, r.Name, r.FoxTimes[0], r.FoxTimes[1], r.FoxTimes[2], r.FoxTimes[3], r.FoxTimes[4],
		r.Secrets, r.DetectedAt)
	if err != nil {
		return Result{}, fmt.Errorf("failed to store result: %w", err)
	}

	if r.ID, err = res.LastInsertId(); err != nil {
		return Result{}, fmt.Errorf("failed to get result id: %w", err)
	}

	s.log.WithField("tag_id", r.TagID).Debug("result stored")
	return r, nil
}

// Results returns every stored result in arrival order
func (s *Store) Results() ([]Result, error) {
	rows, err := s.db.Query(`
		SELECT id, tag_id, name, fox1, fox2, fox3, fox4, fox5, finish, secrets, detected_at
		FROM results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.TagID, &r.Name,
			&r.FoxTimes[0], &r.FoxTimes[1], &r.FoxTimes[2], &r.FoxTimes[3], &r.FoxTimes[4],
			&r.Finish, &r.Secrets, &r.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Result returns one result by id
func (s *Store) Result(id int64) (Result, error) {
	var r Result
	err := s.db.QueryRow(`
		SELECT id, tag_id, name, fox1, fox2, fox3, fox4, fox5, finish, secrets, detected_at
		FROM results WHERE id = ?`, id).Scan(&r.ID, &r.TagID, &r.Name,
		&r.FoxTimes[0], &r.FoxTimes[1], &r.FoxTimes[2], &r.FoxTimes[3], &r.FoxTimes[4],
		&r.Finish, &r.Secrets, &r.DetectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to query result: %w", err)
	}
	return r, nil
}

// SetFinishTime records the time the participant crossed the finish line
func (s *Store) SetFinishTime(id int64, finish time.Time) error {
	res, err := s.db.Exec(`UPDATE results SET finish = ? WHERE id = ?`, finish.Format(foxproto.TimeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to set finish time: %w", err)
	}
	return expectOneRow(res, "result", id)
}

// DeleteResult removes one result
func (s *Store) DeleteResult(id int64) error {
	res, err := s.db.Exec(`DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return expectOneRow(res, "result", id)
}

// ClearResults removes every result
func (s *Store) ClearResults() error {
	if _, err := s.db.Exec(`DELETE FROM results`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	return nil
}

// EventSecrets returns the stored secrets. ok is false when none are stored.
func (s *Store) EventSecrets() (secrets [foxproto.FieldUnits]int, ok bool, err error) {
	err = s.db.QueryRow(`SELECT fox1, fox2, fox3, fox4, fox5 FROM event_secrets WHERE id = 1`).
		Scan(&secrets[0], &secrets[1], &secrets[2], &secrets[3], &secrets[4])
	if errors.Is(err, sql.ErrNoRows) {
		return secrets, false, nil
	}
	if err != nil {
		return secrets, false, fmt.Errorf("failed to load event secrets: %w", err)
	}
	return secrets, true, nil
}

// SetEventSecrets replaces the stored secrets
func (s *Store) SetEventSecrets(secrets [foxproto.FieldUnits]int) error {
	for i, v := range secrets {
		if v < foxproto.MinSecret || v > foxproto.MaxSecret {
			return fmt.Errorf("secret for fox %d: %w", i+1, foxproto.ErrOutOfRange)
		}
	}
	_, err := s.db.Exec(`
		INSERT INTO event_secrets (id, fox1, fox2, fox3, fox4, fox5, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			fox1 = excluded.fox1, fox2 = excluded.fox2, fox3 = excluded.fox3,
			fox4 = excluded.fox4, fox5 = excluded.fox5, updated_at = CURRENT_TIMESTAMP`,
		secrets[0], secrets[1], secrets[2], secrets[3], secrets[4])
	if err != nil {
		return fmt.Errorf("failed to store event secrets: %w", err)
	}
	return nil
}

// LoadOrCreateEventSecrets returns the stored secrets, storing generate()
// first when there are none
func (s *Store) LoadOrCreateEventSecrets(generate func() [foxproto.FieldUnits]int) ([foxproto.FieldUnits]int, error) {
	secrets, ok, err := s.EventSecrets()
	if err != nil || ok {
		return secrets, err
	}
	secrets = generate()
	if err := s.SetEventSecrets(secrets); err != nil {
		return secrets, err
	}
	s.log.Info("generated new event secrets")
	return secrets, nil
}
