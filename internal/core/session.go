// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"time"

	"github.com/holomush/itemcore/internal/world"
)

// session is a logged-in player. It is only touched on the engine goroutine.
type session struct {
	id       string
	name     string
	creature *world.Creature
	since    time.Time
}

// SessionInfo is a detached view of a session.
type SessionInfo struct {
	PlayerID string         `json:"player_id"`
	Name     string         `json:"name"`
	Position world.Position `json:"position"`
	Weight   float64        `json:"weight"`
	Items    int            `json:"items"`
	Since    time.Time      `json:"since"`
}

func (s *session) info() SessionInfo {
	eq := s.creature.Equipment()
	info := SessionInfo{
		PlayerID: s.id,
		Name:     s.name,
		Weight:   eq.Weight(),
		Since:    s.since,
	}
	if t := s.creature.Tile(); t != nil {
		info.Position = t.Position()
	}
	for _, n := range eq.AllItemTypeCounts(nil) {
		info.Items += n
	}
	return info
}
