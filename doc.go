// Package crul assembles a hypergraph construct-identity system from a
// configuration file.
//
// The system keeps vertices, edges and properties addressable by ID while
// constructs are merged and removed. The building blocks live in their own
// packages:
//
//   - id: the identity grammar and ID generators
//   - construct: vertices, edges, properties and references to them
//   - redirect: the per-graph, per-kind store that follows merge aliases
//   - involvement: working sets of references that heal after merges
//   - identity: structural hashing and equality of constructs
//   - graph: the in-memory graph system
//   - selector: CEL and glob construct selection
//   - eventbus: the Redis event journal
//   - config: crul.yaml loading
//
// # Getting Started
//
//	cfg, err := config.Load("crul.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	inst, err := crul.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.CloseWithLog()
//
//	g, err := inst.System().NewGraph("molecules")
//
// # Merging
//
// Merging folds one construct into another. Every ID that designated the
// source, including older aliases, designates the target afterwards:
//
//	_ = g.Merge(ctx, construct.KindVertex, "c_alias", "c1")
//	v, _ := g.Vertex("c_alias") // the vertex stored under c1
//
// References remember the ID they were created with. Resolve always follows
// merges; WithTerminalID pins a reference to the current ID.
package crul
