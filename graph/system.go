// Package graph provides the in-memory graph system that owns hypergraph
// constructs.
//
// A System is a registry of Graphs. Each Graph owns one Redirector per
// construct kind; there is no process-wide redirection table. Constructs and
// references resolve IDs through the Graph on every access, so merges and
// removals are observed immediately.
//
// Basic usage:
//
//	sys, err := graph.NewSystem(graph.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	g, err := sys.NewGraph("molecules")
//	if err != nil {
//		return err
//	}
//	carbon, err := g.AddVertex(ctx, "c1", "carbon")
//
// The System registry is safe for concurrent use. A Graph is not: callers
// must serialise mutation of a single graph.
package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/id"
)

// System is an in-memory registry of graphs. It implements construct.System.
type System struct {
	mu     sync.RWMutex
	id     string
	graphs map[string]*Graph
	opts   options
	inst   *instruments
}

var _ construct.System = (*System)(nil)

// NewSystem creates an empty system.
//
// Returns an invalid-argument error if WithSystemID supplied an illegal ID.
func NewSystem(opts ...Option) (*System, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	systemID := o.systemID
	if systemID == "" {
		generated, err := o.generator.Generate("sys")
		if err != nil {
			return nil, fmt.Errorf("failed to generate system id: %w", err)
		}
		systemID = generated
	}
	if !id.IsValid(systemID) {
		return nil, hgerr.InvalidArgument("graph.NewSystem", systemID, "not a valid name token")
	}

	inst, err := newInstruments(o.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	s := &System{
		id:     systemID,
		graphs: make(map[string]*Graph),
		opts:   o,
		inst:   inst,
	}
	o.logger.Debug("graph system created", "component", "graph", "system_id", systemID)
	return s, nil
}

// ID returns the system ID.
func (s *System) ID() string {
	return s.id
}

// NewGraph creates and registers an empty graph. An empty graphID asks the
// configured generator for one.
//
// Returns an invalid-argument error if graphID is illegal or already used.
func (s *System) NewGraph(graphID string) (*Graph, error) {
	if graphID == "" {
		generated, err := s.opts.generator.Generate("graph")
		if err != nil {
			return nil, fmt.Errorf("failed to generate graph id: %w", err)
		}
		graphID = generated
	}
	if !id.IsValid(graphID) {
		return nil, hgerr.InvalidArgument("System.NewGraph", graphID, "not a valid name token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graphs[graphID]; exists {
		return nil, hgerr.InvalidArgument("System.NewGraph", graphID, "graph already exists")
	}
	g := newGraph(s, graphID)
	s.graphs[graphID] = g

	s.opts.logger.Debug("graph created", "component", "graph", "system_id", s.id, "graph_id", graphID)
	return g, nil
}

// Graph returns the graph with the given ID as a construct.Graph.
func (s *System) Graph(graphID string) (construct.Graph, bool) {
	g, ok := s.Lookup(graphID)
	if !ok {
		return nil, false
	}
	return g, true
}

// Lookup returns the graph with the given ID.
func (s *System) Lookup(graphID string) (*Graph, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[graphID]
	return g, ok
}

// RemoveGraph unregisters a graph. References into it stop resolving.
// It reports whether the graph existed.
func (s *System) RemoveGraph(graphID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[graphID]; !ok {
		return false
	}
	delete(s.graphs, graphID)
	s.opts.logger.Debug("graph removed", "component", "graph", "system_id", s.id, "graph_id", graphID)
	return true
}

// GraphIDs returns the IDs of all registered graphs, sorted.
func (s *System) GraphIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for graphID := range s.graphs {
		ids = append(ids, graphID)
	}
	slices.Sort(ids)
	return ids
}
