package crul_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	crul "github.com/hc1839/crul-sub003"
	"github.com/hc1839/crul-sub003/config"
	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/graph"
	"github.com/hc1839/crul-sub003/identity"
	"github.com/hc1839/crul-sub003/involvement"
	"github.com/hc1839/crul-sub003/selector"
)

// Helper to create an instance without logging
func newQuietInstance() (*crul.Instance, error) {
	cfg := &config.Config{System: config.SystemConfig{ID: "example"}}
	return crul.New(cfg, graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// ExampleNew demonstrates merging two vertices and resolving the old ID.
func ExampleNew() {
	inst, err := newQuietInstance()
	if err != nil {
		log.Fatal(err)
	}
	defer inst.CloseWithLog()

	ctx := context.Background()
	g, err := inst.System().NewGraph("molecules")
	if err != nil {
		log.Fatal(err)
	}
	if _, err := g.AddVertex(ctx, "carbon_a", "carbon"); err != nil {
		log.Fatal(err)
	}
	if _, err := g.AddVertex(ctx, "carbon_b", "C"); err != nil {
		log.Fatal(err)
	}

	if err := g.Merge(ctx, construct.KindVertex, "carbon_a", "carbon_b"); err != nil {
		log.Fatal(err)
	}

	v, _ := g.Vertex("carbon_a")
	fmt.Println(v.ID(), v.Names())
	fmt.Println(g.TerminalIDs(construct.KindVertex))

	// Output:
	// carbon_b [C carbon]
	// [carbon_b]
}

// Example_involvement demonstrates healing a working set after a merge.
func Example_involvement() {
	inst, err := newQuietInstance()
	if err != nil {
		log.Fatal(err)
	}
	defer inst.CloseWithLog()

	ctx := context.Background()
	g, _ := inst.System().NewGraph("g")
	for _, cid := range []string{"h1", "h2", "o1"} {
		if _, err := g.AddVertex(ctx, cid, cid); err != nil {
			log.Fatal(err)
		}
	}

	working := involvement.New(construct.KindVertex)
	hydrogens, _ := selector.Glob("h*")
	if _, err := working.AddMatching(g, hydrogens); err != nil {
		log.Fatal(err)
	}

	_ = g.Merge(ctx, construct.KindVertex, "h1", "h2")
	fmt.Println(len(working.References()), len(working.Constructs()))

	working.Reindex()
	for _, ref := range working.References() {
		fmt.Println(ref)
	}

	// Output:
	// 2 1
	// g/vertex/h2
}

// Example_identity demonstrates the name-sharing rule of vertex equality.
func Example_identity() {
	inst, err := newQuietInstance()
	if err != nil {
		log.Fatal(err)
	}
	defer inst.CloseWithLog()

	ctx := context.Background()
	g, _ := inst.System().NewGraph("g")
	xy, _ := g.AddVertex(ctx, "v1", "x", "y")
	yz, _ := g.AddVertex(ctx, "v2", "y", "z")
	zw, _ := g.AddVertex(ctx, "v3", "z", "w")

	fmt.Println(identity.VerticesEqual(xy, yz), identity.VerticesEqual(yz, zw), identity.VerticesEqual(xy, zw))

	// Output: true true false
}
