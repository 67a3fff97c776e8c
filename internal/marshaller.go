package internal

import (
	"encoding/json"
	"fmt"
)

// The record form of a Slot. A slot holds a team when ID is
// set, otherwise it is pending on its source.
type SlotRecord struct {
	ID       string   `json:"id,omitempty" msgpack:"id,omitempty"`
	Name     string   `json:"name,omitempty" msgpack:"name,omitempty"`
	PoolName string   `json:"poolName,omitempty" msgpack:"pool,omitempty"`
	Members  []string `json:"members,omitempty" msgpack:"members,omitempty"`

	SourceMatchID string     `json:"sourceMatchId,omitempty" msgpack:"match,omitempty"`
	SourceType    SourceType `json:"sourceTeamType,omitempty" msgpack:"type,omitempty"`
}

func EncodeSlot(slot Slot) SlotRecord {
	var record SlotRecord
	if team, ok := slot.Resolved(); ok {
		record.ID = team.ID
		record.Name = team.Name
		record.PoolName = team.PoolName
		record.Members = team.Members
	}
	if source := SlotSource(slot); source != nil {
		record.SourceMatchID = source.MatchID
		record.SourceType = source.Type
	}
	return record
}

func DecodeSlot(record SlotRecord) (Slot, error) {
	var source *Source
	if record.SourceMatchID != "" {
		switch record.SourceType {
		case SourceWinner, SourceLoser:
		default:
			return nil, fmt.Errorf("%w: source type %q", ErrInconsistentState, record.SourceType)
		}
		source = &Source{MatchID: record.SourceMatchID, Type: record.SourceType}
	}

	if record.ID != "" {
		team := TeamRef{
			ID:       record.ID,
			Name:     record.Name,
			PoolName: record.PoolName,
			Members:  record.Members,
		}
		return &TeamSlot{Team: team, Source: source}, nil
	}
	if source == nil {
		return nil, fmt.Errorf("%w: slot without team or source", ErrInconsistentState)
	}
	return &PendingSlot{Source: *source}, nil
}

type matchFields Match

type matchJSON struct {
	*matchFields
	Team1 SlotRecord `json:"team1"`
	Team2 SlotRecord `json:"team2"`
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchJSON{
		matchFields: (*matchFields)(m),
		Team1:       EncodeSlot(m.Team1),
		Team2:       EncodeSlot(m.Team2),
	})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	record := matchJSON{matchFields: (*matchFields)(m)}
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	var err error
	if m.Team1, err = DecodeSlot(record.Team1); err != nil {
		return fmt.Errorf("team1 of match %s: %w", m.ID, err)
	}
	if m.Team2, err = DecodeSlot(record.Team2); err != nil {
		return fmt.Errorf("team2 of match %s: %w", m.ID, err)
	}
	return nil
}
