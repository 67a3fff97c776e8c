package internal

import (
	"fmt"
	"math/rand"
	"slices"
)

type PhaseKind string

const (
	// Entrants are drafted into pools and play them out
	PhasePools PhaseKind = "pools"
	// Entrants play a single elimination bracket seeded by
	// their participant order
	PhaseElimination PhaseKind = "elimination"
)

type PhaseStatus string

const (
	PhaseNotConfigured PhaseStatus = "not_configured"
	PhaseConfigured    PhaseStatus = "configured"
	PhaseInProgress    PhaseStatus = "in_progress"
	PhaseCompleted     PhaseStatus = "completed"
)

type PhaseConfig struct {
	Kind PhaseKind `json:"kind"`

	PoolCount int `json:"poolCount,omitempty"`
	// Players per side in King pools. Zero means the entrants
	// are fixed teams that play a round robin.
	TeamSize int `json:"teamSize,omitempty"`
	// Round robin passes of fixed-team pools
	Passes int `json:"passes,omitempty"`
	// Rounds of King pools
	Rounds int `json:"rounds,omitempty"`

	MinParticipants int `json:"minParticipants"`

	// How many of the top entrants of each pool qualify
	Qualifiers []int `json:"qualifiers,omitempty"`
	// Sum of all qualifiers. For elimination phases the number
	// of top ranked entrants that qualify (0 = everybody).
	TotalQualified int `json:"totalQualified"`

	ScoreSettings
}

func (c *PhaseConfig) Validate() error {
	if err := c.ScoreSettings.Validate(); err != nil {
		return err
	}

	switch c.Kind {
	case PhasePools:
		if c.PoolCount < 1 {
			return ErrInvalidPoolCount
		}
		if c.TeamSize < 0 {
			return ErrInvalidTeamSize
		}
		if len(c.Qualifiers) != c.PoolCount {
			return fmt.Errorf("%d quotas for %d pools: %w", len(c.Qualifiers), c.PoolCount, ErrQuotaMismatch)
		}
		sum := 0
		for _, q := range c.Qualifiers {
			if q < 0 {
				return ErrQuotaMismatch
			}
			sum += q
		}
		if sum != c.TotalQualified {
			return fmt.Errorf("quotas sum to %d, expected %d: %w", sum, c.TotalQualified, ErrQuotaMismatch)
		}
	case PhaseElimination:
		if c.TotalQualified < 0 {
			return ErrQuotaMismatch
		}
	default:
		return fmt.Errorf("%w: unknown phase kind %q", ErrConfiguration, c.Kind)
	}

	return nil
}

// A Phase is one stage of a multi-phase tournament.
//
// Its status only moves forward:
// not_configured -> configured -> in_progress -> completed.
type Phase struct {
	Number int          `json:"phaseNumber"`
	Config *PhaseConfig `json:"config,omitempty"`

	ParticipantIDs []string `json:"participantIds"`
	QualifiedIDs   []string `json:"qualifiedIds"`
	WithdrawnIDs   []string `json:"withdrawnIds"`
	// Every participant ordered by their result once completed
	RankingIDs []string `json:"rankingIds"`

	Status PhaseStatus `json:"status"`
}

func NewPhase(number int) *Phase {
	return &Phase{Number: number, Status: PhaseNotConfigured}
}

func (p *Phase) Clone() *Phase {
	clone := *p
	if p.Config != nil {
		config := *p.Config
		config.Qualifiers = slices.Clone(p.Config.Qualifiers)
		clone.Config = &config
	}
	clone.ParticipantIDs = slices.Clone(p.ParticipantIDs)
	clone.QualifiedIDs = slices.Clone(p.QualifiedIDs)
	clone.WithdrawnIDs = slices.Clone(p.WithdrawnIDs)
	clone.RankingIDs = slices.Clone(p.RankingIDs)
	return &clone
}

// Sets the configuration. A configured phase can be
// reconfigured until it starts.
func (p *Phase) Configure(config PhaseConfig) error {
	if p.Status != PhaseNotConfigured && p.Status != PhaseConfigured {
		return fmt.Errorf("phase %d is %s: %w", p.Number, p.Status, ErrPhaseStatus)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	config.Qualifiers = slices.Clone(config.Qualifiers)
	p.Config = &config
	p.Status = PhaseConfigured
	return nil
}

// Sets the participants ahead of the start. Later phases
// get them from the qualifiers of the previous phase.
func (p *Phase) SetParticipants(ids []string) error {
	if p.Status == PhaseInProgress || p.Status == PhaseCompleted {
		return fmt.Errorf("phase %d is %s: %w", p.Number, p.Status, ErrPhaseStatus)
	}
	if err := checkDistinctIDs(ids); err != nil {
		return err
	}
	p.ParticipantIDs = slices.Clone(ids)
	return nil
}

// Marks an entrant as withdrawn. Withdrawn entrants are no
// repechage candidates and do not take part in later phases.
func (p *Phase) Withdraw(id string) {
	if !slices.Contains(p.WithdrawnIDs, id) {
		p.WithdrawnIDs = append(p.WithdrawnIDs, id)
	}
}

func (p *Phase) IsWithdrawn(id string) bool {
	return slices.Contains(p.WithdrawnIDs, id)
}

// The matches a phase starts with
type PhaseStart struct {
	// Set for pool phases
	Pools []*Pool
	// Set for elimination phases
	Bracket *Bracket
	// All matches of the pools or the bracket
	Matches []*Match
}

// Starts the phase with the given entrants.
//
// When no participants were set before, all entrants take
// part in the first phase. Any other phase without
// participants fails with ErrTooFewEntries. The participants
// are looked up among the entrants and withdrawn entrants
// are left out.
//
// Pool phases draft the participants into pools by skill
// level with rng breaking ties. Elimination phases seed the
// bracket by the participant order.
func (p *Phase) Start(entrants []Entrant, rng *rand.Rand) (*PhaseStart, error) {
	if p.Status != PhaseConfigured {
		return nil, fmt.Errorf("phase %d is %s: %w", p.Number, p.Status, ErrPhaseStatus)
	}
	config := p.Config

	participants, err := p.selectParticipants(entrants)
	if err != nil {
		return nil, err
	}

	if len(participants) < max(config.MinParticipants, 2) {
		return nil, fmt.Errorf("phase %d has %d participants: %w", p.Number, len(participants), ErrTooFewEntries)
	}
	if config.TotalQualified > len(participants) {
		return nil, fmt.Errorf("%d qualifiers from %d participants: %w", config.TotalQualified, len(participants), ErrQuotaExceedsPool)
	}

	var start *PhaseStart
	switch config.Kind {
	case PhasePools:
		start, err = startPools(participants, config, rng)
	case PhaseElimination:
		start, err = startElimination(participants, config)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(participants))
	for _, e := range participants {
		ids = append(ids, e.ID)
	}
	p.ParticipantIDs = ids
	p.Status = PhaseInProgress

	return start, nil
}

func (p *Phase) selectParticipants(entrants []Entrant) ([]Entrant, error) {
	byID := make(map[string]Entrant, len(entrants))
	for _, e := range entrants {
		if _, ok := byID[e.ID]; ok {
			return nil, fmt.Errorf("entrant %s: %w", e.ID, ErrDuplicateEntrant)
		}
		byID[e.ID] = e
	}

	// Only the first phase takes every entrant. Later phases
	// get their participants from AdvancePhase.
	ids := p.ParticipantIDs
	if len(ids) == 0 && p.Number == 1 {
		ids = make([]string, 0, len(entrants))
		for _, e := range entrants {
			ids = append(ids, e.ID)
		}
	}

	participants := make([]Entrant, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("participant %s: %w", id, ErrUnknownParticipant)
		}
		if p.IsWithdrawn(id) {
			continue
		}
		participants = append(participants, e)
	}

	return participants, nil
}

func startPools(participants []Entrant, config *PhaseConfig, rng *rand.Rand) (*PhaseStart, error) {
	drafts, err := SnakeDraft(participants, config.PoolCount, rng)
	if err != nil {
		return nil, err
	}

	start := &PhaseStart{Pools: make([]*Pool, 0, len(drafts))}
	for i, draft := range drafts {
		name := PoolName(i)
		if config.Qualifiers[i] > len(draft) {
			return nil, fmt.Errorf("%s has %d entrants for %d qualifiers: %w", name, len(draft), config.Qualifiers[i], ErrQuotaExceedsPool)
		}

		teams := make([]TeamRef, 0, len(draft))
		for _, e := range draft {
			teams = append(teams, e.TeamRef())
		}

		var pool *Pool
		if config.TeamSize == 0 {
			pool, err = NewRoundRobinPool(name, teams, config.Passes, config.ScoreSettings)
		} else {
			pool, err = NewKingPool(name, teams, config.TeamSize, config.Rounds, config.ScoreSettings)
		}
		if err != nil {
			return nil, err
		}

		start.Pools = append(start.Pools, pool)
		start.Matches = append(start.Matches, pool.Matches...)
	}

	return start, nil
}

func startElimination(participants []Entrant, config *PhaseConfig) (*PhaseStart, error) {
	teams := make([]TeamRef, 0, len(participants))
	for _, e := range participants {
		teams = append(teams, e.TeamRef())
	}

	bracket, err := GenerateBracket(teams, config.ScoreSettings)
	if err != nil {
		return nil, err
	}

	return &PhaseStart{Bracket: bracket, Matches: bracket.Matches}, nil
}

// The outcome of a completed phase
type PhaseResult struct {
	QualifiedIDs []string
	// Participants who neither qualified nor withdrew. An
	// admin may move them into the next phase.
	RepechageCandidates []string

	// Cross-pool ranking of a pool phase
	Ranking []*Qualification
	// Tied ranking of an elimination phase
	EliminationRanking [][]TeamRef
}

// Completes the phase once every match is completed.
//
// Pool phases rank every pool by its standings and qualify
// the configured number of top finishers per pool. The
// pools need to be given in the order of the quotas.
// Elimination phases qualify the top of the bracket ranking.
func (p *Phase) Complete(pools []*Pool, matches []*Match) (*PhaseResult, error) {
	if p.Status != PhaseInProgress {
		return nil, fmt.Errorf("phase %d is %s: %w", p.Number, p.Status, ErrPhaseStatus)
	}

	var (
		result *PhaseResult
		err    error
	)
	switch p.Config.Kind {
	case PhasePools:
		result, err = p.completePools(pools)
	case PhaseElimination:
		result, err = p.completeElimination(matches)
	}
	if err != nil {
		return nil, err
	}

	p.QualifiedIDs = result.QualifiedIDs
	p.Status = PhaseCompleted

	return result, nil
}

func (p *Phase) completePools(pools []*Pool) (*PhaseResult, error) {
	if len(pools) != len(p.Config.Qualifiers) {
		return nil, fmt.Errorf("%d pools for %d quotas: %w", len(pools), len(p.Config.Qualifiers), ErrQuotaMismatch)
	}

	standings := make([][]*Standing, 0, len(pools))
	for _, pool := range pools {
		if !pool.Completed() {
			return nil, fmt.Errorf("%s: %w", pool.Name, ErrPhaseIncomplete)
		}
		standings = append(standings, ComputeStandings(pool))
	}

	ranked := RankAcrossPools(standings)
	qualified, others := SelectQualifiers(ranked, p.Config.Qualifiers)

	result := &PhaseResult{
		QualifiedIDs:        make([]string, 0, len(qualified)),
		RepechageCandidates: make([]string, 0, len(others)),
		Ranking:             ranked,
	}
	for _, q := range qualified {
		result.QualifiedIDs = append(result.QualifiedIDs, q.Standing.TeamID)
	}
	for _, q := range others {
		if !p.IsWithdrawn(q.Standing.TeamID) {
			result.RepechageCandidates = append(result.RepechageCandidates, q.Standing.TeamID)
		}
	}

	p.RankingIDs = make([]string, 0, len(ranked))
	for _, q := range ranked {
		p.RankingIDs = append(p.RankingIDs, q.Standing.TeamID)
	}

	return result, nil
}

func (p *Phase) completeElimination(matches []*Match) (*PhaseResult, error) {
	if len(matches) == 0 || !MatchesCompleted(matches...) {
		return nil, ErrPhaseIncomplete
	}

	ranks, err := EliminationRanking(matches)
	if err != nil {
		return nil, err
	}
	ranking := FlattenRanks(ranks)

	numQualified := p.Config.TotalQualified
	if numQualified == 0 || numQualified > len(ranking) {
		numQualified = len(ranking)
	}

	result := &PhaseResult{
		QualifiedIDs:        slices.Clone(ranking[:numQualified]),
		RepechageCandidates: make([]string, 0, len(ranking)-numQualified),
		EliminationRanking:  ranks,
	}
	for _, id := range ranking[numQualified:] {
		if !p.IsWithdrawn(id) {
			result.RepechageCandidates = append(result.RepechageCandidates, id)
		}
	}
	p.RankingIDs = ranking

	return result, nil
}

// Builds the participants of the next phase: the qualified
// entrants followed by the repechage additions, without the
// withdrawn ones. Duplicates are dropped and the order is kept.
func NextParticipants(qualified, added, withdrawn []string) []string {
	seen := make(map[string]struct{}, len(qualified)+len(added))
	for _, id := range withdrawn {
		seen[id] = struct{}{}
	}

	participants := make([]string, 0, len(qualified)+len(added))
	for _, id := range slices.Concat(qualified, added) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}
	return participants
}

// Sets the participants of next from the qualifiers of the
// completed phase current and the repechage picks. The picks
// have to be participants of current.
func AdvancePhase(current, next *Phase, repechage []string) error {
	if current.Status != PhaseCompleted {
		return fmt.Errorf("phase %d is %s: %w", current.Number, current.Status, ErrPhaseStatus)
	}

	for _, id := range repechage {
		if !slices.Contains(current.ParticipantIDs, id) {
			return fmt.Errorf("repechage %s: %w", id, ErrUnknownParticipant)
		}
	}

	withdrawn := slices.Concat(current.WithdrawnIDs, next.WithdrawnIDs)
	return next.SetParticipants(NextParticipants(current.QualifiedIDs, repechage, withdrawn))
}

func checkDistinctIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("participant %s: %w", id, ErrDuplicateEntrant)
		}
		seen[id] = struct{}{}
	}
	return nil
}
