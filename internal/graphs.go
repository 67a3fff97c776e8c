// This file contains thin wrappers around the graph module
// for managing the links between matches.
package internal

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/dominikbraun/graph"
)

type GraphNode interface {
	// A unique ID that is used as the node hash
	GetID() string
}

func getNodeId[T GraphNode](node T) string {
	return node.GetID()
}

type DependencyGraph[T GraphNode] struct {
	graph.Graph[string, T]
	adjacencyMap map[string]map[string]graph.Edge[string]
}

func (g *DependencyGraph[T]) BreadthSearchIter(start T) iter.Seq2[T, int] {
	iterator := func(yield func(v T, depth int) bool) {
		visitor := func(key string, depth int) bool {
			v, _ := g.Vertex(key)
			return !yield(v, depth)
		}
		graph.BFSWithDepth(g.Graph, start.GetID(), visitor)
	}
	return iterator
}

// Returns the outgoing edges of the given source node
// (the dependants).
func (g *DependencyGraph[T]) outEdges(source T) map[string]graph.Edge[string] {
	if g.adjacencyMap == nil {
		// The links do not change after the graph was built
		// so the adjacency map is stored on the first call
		g.adjacencyMap, _ = g.Graph.AdjacencyMap()
	}
	return g.adjacencyMap[source.GetID()]
}

func (m *Match) GetID() string {
	return m.ID
}

// The data on an edge of the MatchGraph. It tells which
// side of the source advances into which slot of the target.
type Link struct {
	Type SourceType
	Slot int
}

// A downstream match together with the link leading to it
type Dependant struct {
	Match *Match
	Link  Link
}

// The MatchGraph has the matches of an elimination bracket as
// its nodes. The edges point from a match to the matches
// that its winner and loser advance into.
//
// The graph is the arena for all matches it contains.
// Matches reference each other only by id.
type MatchGraph struct {
	DependencyGraph[*Match]
}

// Builds the graph from the forward links of the matches.
// Works for freshly generated brackets as well as for
// matches loaded from storage.
func NewMatchGraph(matches []*Match) (*MatchGraph, error) {
	g := &MatchGraph{
		DependencyGraph: DependencyGraph[*Match]{
			Graph: graph.New(getNodeId[*Match], graph.Directed(), graph.PreventCycles()),
		},
	}

	for _, m := range matches {
		if err := g.AddVertex(m); err != nil {
			return nil, fmt.Errorf("match %s: %w", m.ID, err)
		}
	}

	for _, m := range matches {
		if m.NextMatchID != "" {
			err := g.addLink(m, m.NextMatchID, Link{SourceWinner, m.NextMatchTeamSlot})
			if err != nil {
				return nil, err
			}
		}
		if m.NextMatchLoserID != "" {
			err := g.addLink(m, m.NextMatchLoserID, Link{SourceLoser, m.NextMatchLoserTeamSlot})
			if err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

func (g *MatchGraph) addLink(source *Match, targetID string, link Link) error {
	if link.Slot != 1 && link.Slot != 2 {
		return fmt.Errorf("link %s -> %s: %w", source.ID, targetID, ErrUnknownSlot)
	}

	err := g.AddEdge(source.ID, targetID, graph.EdgeData(link))
	switch {
	case errors.Is(err, graph.ErrVertexNotFound):
		return fmt.Errorf("link %s -> %s: %w", source.ID, targetID, ErrUnknownMatch)
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return fmt.Errorf("link %s -> %s: %w", source.ID, targetID, ErrCyclicLink)
	}
	return err
}

// Returns the match with the given id
func (g *MatchGraph) Match(id string) (*Match, bool) {
	m, err := g.Vertex(id)
	if err != nil {
		return nil, false
	}
	return m, true
}

// Returns the matches that the winner and the loser of the
// given match advance into. The winner's target comes first.
func (g *MatchGraph) Dependants(source *Match) []Dependant {
	edges := g.outEdges(source)
	dependants := make([]Dependant, 0, len(edges))
	for target, edge := range edges {
		match, _ := g.Vertex(target)
		link, _ := edge.Properties.Data.(Link)
		dependants = append(dependants, Dependant{Match: match, Link: link})
	}

	slices.SortFunc(dependants, func(a, b Dependant) int {
		return cmp.Compare(linkOrder(a.Link), linkOrder(b.Link))
	})

	return dependants
}

func linkOrder(link Link) int {
	if link.Type == SourceWinner {
		return 0
	}
	return 1
}

// Returns whether the result of the given match may still be
// changed. This is the case as long as no match that
// depends on it has started.
func (g *MatchGraph) IsEditable(match *Match) bool {
	for m, depth := range g.BreadthSearchIter(match) {
		if depth > 0 && m.Started() {
			return false
		}
	}
	return true
}
