package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/courtking/progression/internal"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	tournament_id TEXT NOT NULL,
	phase INTEGER NOT NULL,
	pool_id TEXT NOT NULL DEFAULT '',
	match_number INTEGER NOT NULL,
	round TEXT NOT NULL,
	status TEXT NOT NULL,
	sets_to_win INTEGER NOT NULL,
	points_per_set INTEGER NOT NULL,
	tie_break BOOLEAN NOT NULL,
	next_match_id TEXT NOT NULL DEFAULT '',
	next_match_team_slot INTEGER NOT NULL DEFAULT 0,
	next_match_loser_id TEXT NOT NULL DEFAULT '',
	next_match_loser_team_slot INTEGER NOT NULL DEFAULT 0,
	winner_id TEXT NOT NULL DEFAULT '',
	loser_id TEXT NOT NULL DEFAULT '',
	winner_name TEXT NOT NULL DEFAULT '',
	loser_name TEXT NOT NULL DEFAULT '',
	sets_won_team1 INTEGER NOT NULL DEFAULT 0,
	sets_won_team2 INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL,
	team1_blob BLOB NOT NULL,
	team2_blob BLOB NOT NULL,
	sets_blob BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS matches_phase ON matches (tournament_id, phase);

CREATE TABLE IF NOT EXISTS pools (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	tournament_id TEXT NOT NULL,
	phase INTEGER NOT NULL,
	name TEXT NOT NULL,
	teams_blob BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS phases (
	tournament_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	status TEXT NOT NULL,
	phase_blob BLOB NOT NULL,
	PRIMARY KEY (tournament_id, number)
);
`

const matchColumns = `id, tournament_id, phase, pool_id, match_number, round, status,
	sets_to_win, points_per_set, tie_break,
	next_match_id, next_match_team_slot, next_match_loser_id, next_match_loser_team_slot,
	winner_id, loser_id, winner_name, loser_name, sets_won_team1, sets_won_team2,
	version, team1_blob, team2_blob, sets_blob`

const insertMatch = `
INSERT INTO matches (` + matchColumns + `)
VALUES (:id, :tournament_id, :phase, :pool_id, :match_number, :round, :status,
	:sets_to_win, :points_per_set, :tie_break,
	:next_match_id, :next_match_team_slot, :next_match_loser_id, :next_match_loser_team_slot,
	:winner_id, :loser_id, :winner_name, :loser_name, :sets_won_team1, :sets_won_team2,
	:version, :team1_blob, :team2_blob, :sets_blob)`

// The links and settings of a match never change after it
// was inserted so only the result and the slots are updated
const updateMatch = `
UPDATE matches SET
	status = :status,
	winner_id = :winner_id,
	loser_id = :loser_id,
	winner_name = :winner_name,
	loser_name = :loser_name,
	sets_won_team1 = :sets_won_team1,
	sets_won_team2 = :sets_won_team2,
	team1_blob = :team1_blob,
	team2_blob = :team2_blob,
	sets_blob = :sets_blob,
	version = version + 1
WHERE id = :id AND version = :version`

type matchRow struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	Phase        int    `db:"phase"`
	PoolID       string `db:"pool_id"`
	MatchNumber  int    `db:"match_number"`
	Round        string `db:"round"`
	Status       string `db:"status"`

	SetsToWin    int  `db:"sets_to_win"`
	PointsPerSet int  `db:"points_per_set"`
	TieBreak     bool `db:"tie_break"`

	NextMatchID            string `db:"next_match_id"`
	NextMatchTeamSlot      int    `db:"next_match_team_slot"`
	NextMatchLoserID       string `db:"next_match_loser_id"`
	NextMatchLoserTeamSlot int    `db:"next_match_loser_team_slot"`

	WinnerID     string `db:"winner_id"`
	LoserID      string `db:"loser_id"`
	WinnerName   string `db:"winner_name"`
	LoserName    string `db:"loser_name"`
	SetsWonTeam1 int    `db:"sets_won_team1"`
	SetsWonTeam2 int    `db:"sets_won_team2"`

	Version int `db:"version"`

	Team1Blob []byte `db:"team1_blob"`
	Team2Blob []byte `db:"team2_blob"`
	SetsBlob  []byte `db:"sets_blob"`
}

func newMatchRow(m *internal.Match, tournamentID string, phase int) (*matchRow, error) {
	team1Blob, err := msgpack.Marshal(internal.EncodeSlot(m.Team1))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal team1 of match %s: %w", m.ID, err)
	}
	team2Blob, err := msgpack.Marshal(internal.EncodeSlot(m.Team2))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal team2 of match %s: %w", m.ID, err)
	}
	setsBlob, err := msgpack.Marshal(m.Sets)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sets of match %s: %w", m.ID, err)
	}

	return &matchRow{
		ID:                     m.ID,
		TournamentID:           tournamentID,
		Phase:                  phase,
		PoolID:                 m.PoolID,
		MatchNumber:            m.MatchNumber,
		Round:                  m.Round,
		Status:                 string(m.Status),
		SetsToWin:              m.SetsToWin,
		PointsPerSet:           m.PointsPerSet,
		TieBreak:               m.TieBreakEnabled,
		NextMatchID:            m.NextMatchID,
		NextMatchTeamSlot:      m.NextMatchTeamSlot,
		NextMatchLoserID:       m.NextMatchLoserID,
		NextMatchLoserTeamSlot: m.NextMatchLoserTeamSlot,
		WinnerID:               m.WinnerID,
		LoserID:                m.LoserID,
		WinnerName:             m.WinnerName,
		LoserName:              m.LoserName,
		SetsWonTeam1:           m.SetsWonTeam1,
		SetsWonTeam2:           m.SetsWonTeam2,
		Version:                m.Version,
		Team1Blob:              team1Blob,
		Team2Blob:              team2Blob,
		SetsBlob:               setsBlob,
	}, nil
}

func (r *matchRow) toMatch() (*internal.Match, error) {
	m := &internal.Match{
		ID:          r.ID,
		MatchNumber: r.MatchNumber,
		Round:       r.Round,
		PoolID:      r.PoolID,
		Status:      internal.MatchStatus(r.Status),
		ScoreSettings: internal.ScoreSettings{
			SetsToWin:       r.SetsToWin,
			PointsPerSet:    r.PointsPerSet,
			TieBreakEnabled: r.TieBreak,
		},
		NextMatchID:            r.NextMatchID,
		NextMatchTeamSlot:      r.NextMatchTeamSlot,
		NextMatchLoserID:       r.NextMatchLoserID,
		NextMatchLoserTeamSlot: r.NextMatchLoserTeamSlot,
		WinnerID:               r.WinnerID,
		LoserID:                r.LoserID,
		WinnerName:             r.WinnerName,
		LoserName:              r.LoserName,
		SetsWonTeam1:           r.SetsWonTeam1,
		SetsWonTeam2:           r.SetsWonTeam2,
		Version:                r.Version,
	}

	var team1, team2 internal.SlotRecord
	if err := msgpack.Unmarshal(r.Team1Blob, &team1); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team1 of match %s: %w", r.ID, err)
	}
	if err := msgpack.Unmarshal(r.Team2Blob, &team2); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team2 of match %s: %w", r.ID, err)
	}
	if err := msgpack.Unmarshal(r.SetsBlob, &m.Sets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sets of match %s: %w", r.ID, err)
	}

	var err error
	if m.Team1, err = internal.DecodeSlot(team1); err != nil {
		return nil, fmt.Errorf("match %s: %w", r.ID, err)
	}
	if m.Team2, err = internal.DecodeSlot(team2); err != nil {
		return nil, fmt.Errorf("match %s: %w", r.ID, err)
	}

	return m, nil
}

type poolRow struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	Phase        int    `db:"phase"`
	Name         string `db:"name"`
	TeamsBlob    []byte `db:"teams_blob"`
}

// SQL stores the records in a SQLite database. Slots, sets
// and other nested values are kept as msgpack blobs.
type SQL struct {
	db *sqlx.DB
}

// Opens the database at path and creates the tables
func OpenSQL(ctx context.Context, path string) (*SQL, error) {
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info("Opened database", "path", path)
	return &SQL{db: db}, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) Commit(ctx context.Context, batch *Batch) error {
	if err := checkBatch(batch); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op once the transaction is committed
	defer tx.Rollback()

	for _, m := range batch.Inserts {
		row, err := newMatchRow(m, batch.TournamentID, batch.Phase)
		if err != nil {
			return err
		}
		row.Version = 1
		if _, err := tx.NamedExecContext(ctx, insertMatch, row); err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, mapConstraintErr(err))
		}
	}

	for _, m := range batch.Updates {
		if err := updateMatchTx(ctx, tx, m); err != nil {
			return err
		}
	}

	for _, p := range batch.Pools {
		teamsBlob, err := msgpack.Marshal(p.Teams)
		if err != nil {
			return fmt.Errorf("failed to marshal teams of pool %s: %w", p.ID, err)
		}
		row := poolRow{
			ID:           p.ID,
			TournamentID: batch.TournamentID,
			Phase:        batch.Phase,
			Name:         p.Name,
			TeamsBlob:    teamsBlob,
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO pools (id, tournament_id, phase, name, teams_blob)
			VALUES (:id, :tournament_id, :phase, :name, :teams_blob)`, row)
		if err != nil {
			return fmt.Errorf("insert pool %s: %w", p.ID, mapConstraintErr(err))
		}
	}

	for _, p := range batch.Phases {
		phaseBlob, err := msgpack.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal phase %d: %w", p.Number, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO phases (tournament_id, number, status, phase_blob)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(tournament_id, number) DO UPDATE SET
				status = excluded.status,
				phase_blob = excluded.phase_blob`,
			batch.TournamentID, p.Number, p.Status, phaseBlob)
		if err != nil {
			return fmt.Errorf("upsert phase %d: %w", p.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	bumpVersions(batch)

	log.Debug("Committed batch",
		"tournament", batch.TournamentID,
		"inserts", len(batch.Inserts),
		"updates", len(batch.Updates),
		"pools", len(batch.Pools),
		"phases", len(batch.Phases),
	)

	return nil
}

func updateMatchTx(ctx context.Context, tx *sqlx.Tx, m *internal.Match) error {
	row, err := newMatchRow(m, "", 0)
	if err != nil {
		return err
	}

	result, err := tx.NamedExecContext(ctx, updateMatch, row)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var stored int
	err = tx.GetContext(ctx, &stored, `SELECT version FROM matches WHERE id = ?`, m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update match %s: %w", m.ID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("update match %s at version %d, stored %d: %w", m.ID, m.Version, stored, ErrConflict)
}

// Inserting an existing id is a conflict with another writer
func mapConstraintErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func (s *SQL) Match(ctx context.Context, id string) (*MatchRecord, error) {
	var row matchRow
	err := s.db.GetContext(ctx, &row, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	m, err := row.toMatch()
	if err != nil {
		return nil, err
	}
	return &MatchRecord{Match: m, TournamentID: row.TournamentID, Phase: row.Phase}, nil
}

func (s *SQL) Matches(ctx context.Context, tournamentID string, phase int) ([]*internal.Match, error) {
	var rows []*matchRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+matchColumns+` FROM matches
		WHERE tournament_id = ? AND phase = ?
		ORDER BY seq`, tournamentID, phase)
	if err != nil {
		return nil, err
	}

	matches := make([]*internal.Match, 0, len(rows))
	for _, row := range rows {
		m, err := row.toMatch()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *SQL) Pools(ctx context.Context, tournamentID string, phase int) ([]*internal.Pool, error) {
	var rows []*poolRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tournament_id, phase, name, teams_blob FROM pools
		WHERE tournament_id = ? AND phase = ?
		ORDER BY seq`, tournamentID, phase)
	if err != nil {
		return nil, err
	}

	pools := make([]*internal.Pool, 0, len(rows))
	for _, row := range rows {
		pool := &internal.Pool{ID: row.ID, Name: row.Name}
		if err := msgpack.Unmarshal(row.TeamsBlob, &pool.Teams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal teams of pool %s: %w", row.ID, err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func (s *SQL) Phase(ctx context.Context, tournamentID string, number int) (*internal.Phase, error) {
	var phaseBlob []byte
	err := s.db.GetContext(ctx, &phaseBlob, `
		SELECT phase_blob FROM phases
		WHERE tournament_id = ? AND number = ?`, tournamentID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("phase %d of %s: %w", number, tournamentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	phase := &internal.Phase{}
	if err := msgpack.Unmarshal(phaseBlob, phase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phase %d: %w", number, err)
	}
	return phase, nil
}
