// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package results

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

// Participant is a runner and the tag id assigned to them
type Participant struct {
	TagID      int
	Name       string
	TagCreated bool
}

// AddParticipant registers a participant under a free tag id
func (s *Store) AddParticipant(p Participant) error {
	if p.TagID < foxproto.MinTagID || p.TagID > foxproto.MaxTagID {
		return fmt.Errorf("tag id %d: %w", p.TagID, foxproto.ErrOutOfRange)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("participant for tag %d has no name", p.TagID)
	}

	_, err := s.db.Exec(`INSERT INTO participants (tag_id, name, tag_created) VALUES (?, ?, ?)`,
		p.TagID, name, p.TagCreated)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("tag id %d: %w", p.TagID, ErrDuplicateTagID)
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// RenameParticipant changes the name registered for tagID
func (s *Store) RenameParticipant(tagID int, name string) error {
	res, err := s.db.Exec(`UPDATE participants SET name = ? WHERE tag_id = ?`, strings.TrimSpace(name), tagID)
	if err != nil {
		return fmt.Errorf("failed to rename participant: %w", err)
	}
	return expectOneRow(res, "participant", tagID)
}

// DeleteParticipant removes the participant holding tagID
func (s *Store) DeleteParticipant(tagID int) error {
	res, err := s.db.Exec(`DELETE FROM participants WHERE tag_id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return expectOneRow(res, "participant", tagID)
}

// ClearParticipants removes every participant
func (s *Store) ClearParticipants() error {
	if _, err := s.db.Exec(`DELETE FROM participants`); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	return nil
}

// Participants returns all participants ordered by tag id
func (s *Store) Participants() ([]Participant, error) {
	rows, err := s.db.Query(`SELECT tag_id, name, tag_created FROM participants ORDER BY tag_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TagID, &p.Name, &p.TagCreated); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ParticipantName returns the name registered for tagID, or "" when the
// tag is unknown
func (s *Store) ParticipantName(tagID int) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM participants WHERE tag_id = ?`, tagID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up participant: %w", err)
	}
	return name, nil
}

// MarkTagCreated flags that a physical tag was written for tagID
func (s *Store) MarkTagCreated(tagID int) error {
	res, err := s.db.Exec(`UPDATE participants SET tag_created = TRUE WHERE tag_id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("failed to mark tag created: %w", err)
	}
	return expectOneRow(res, "participant", tagID)
}

// ClearTagCreated resets the created flag on every participant
func (s *Store) ClearTagCreated() error {
	if _, err := s.db.Exec(`UPDATE participants SET tag_created = FALSE`); err != nil {
		return fmt.Errorf("failed to clear created flags: %w", err)
	}
	return nil
}

// NextTagID proposes the tag id after the highest one in use, wrapping from
// 65535 back to 1
func (s *Store) NextTagID() (int, error) {
	var highest sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(tag_id) FROM participants`).Scan(&highest); err != nil {
		return 0, fmt.Errorf("failed to query tag ids: %w", err)
	}
	if !highest.Valid || highest.Int64 >= foxproto.MaxTagID {
		return foxproto.MinTagID, nil
	}
	return int(highest.Int64) + 1, nil
}
