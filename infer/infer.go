// Package infer drives a full inference run: it builds the port graph
// (shape/type unification happens during graphir.Build itself) and then
// validates that every composite's internal wiring is acyclic.
//
// Cycle detection is adapted from the dfs package's three-color DFS
// (white/gray/black vertex marking, back-edge = cycle) in the graph
// library this engine grew out of, simplified for our case: edges are
// always directed (producer port -> consumer port) and we only need to
// report the first cycle found, not enumerate every simple cycle.
package infer

import (
	"github.com/lucidgraph/symbolic/enginerr"
	"github.com/lucidgraph/symbolic/graphdesc"
	"github.com/lucidgraph/symbolic/graphir"
)

// vertexState mirrors the dfs package's White/Gray/Black marking.
type vertexState uint8

const (
	white vertexState = iota
	gray
	black
)

// Result is the product of one inference run: a built graph whose
// wiring has been confirmed acyclic at every nesting level.
type Result struct {
	Graph *graphir.Graph
}

// Run builds doc into a graphir.Graph and validates it is free of
// connection cycles, recursively through every nested composite.
func Run(doc *graphdesc.Document) (*Result, error) {
	g, err := graphir.Build(doc)
	if err != nil {
		return nil, err
	}
	if err := checkAcyclic(g); err != nil {
		return nil, err
	}
	return &Result{Graph: g}, nil
}

// checkAcyclic validates g's own vertex-to-vertex wiring (via internal
// connections) is a DAG, then recurses into every nested composite's Sub
// graph, each validated independently against its own internal wiring.
func checkAcyclic(g *graphir.Graph) error {
	adj := buildAdjacency(g)

	state := make(map[string]vertexState, len(g.Vertices))
	for _, v := range g.Vertices {
		state[v.Name] = white
	}

	for _, v := range g.Vertices {
		if state[v.Name] == white {
			if cyc := dfsVisit(v.Name, adj, state); cyc != "" {
				return enginerr.Wrap(enginerr.ErrCycle, g.Path, cyc,
					"connection graph has a cycle through %q", cyc)
			}
		}
	}

	for _, v := range g.Vertices {
		if v.Kind == graphir.VertexComposite {
			if err := checkAcyclic(v.Sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildAdjacency maps each vertex name to the names of vertices it feeds
// into: an edge producer -> consumer exists whenever a consumer's input
// port is wired (EndpointInternal) to a peer port belonging to some
// other vertex in the same composite.
//
// A peer port's own Port.Vertex field cannot be used to name the
// producer here: for a composite's re-projected port it still points at
// whatever primitive deep inside that composite originally owned it
// (ports are reused by pointer, not copied), which is not a name that
// exists in this level's g.Vertices. Instead we look up which of this
// level's own vertices exposes that exact port.
func buildAdjacency(g *graphir.Graph) map[string][]string {
	owner := make(map[*graphir.Port]string)
	for _, v := range g.Vertices {
		for _, p := range v.Ports {
			owner[p] = v.Name
		}
	}

	adj := make(map[string][]string, len(g.Vertices))
	for _, v := range g.Vertices {
		for _, p := range v.Ports {
			if p.Role != graphir.RoleInput || p.Endpoint.Kind != graphir.EndpointInternal {
				continue
			}
			for _, peer := range p.Endpoint.Peers {
				producer, ok := owner[peer]
				if !ok {
					continue
				}
				// A self-edge (a vertex wired to its own output) is a
				// degenerate cycle of length one, not skipped: it is
				// caught by dfsVisit the instant it revisits a vertex
				// already marked gray.
				adj[producer] = append(adj[producer], v.Name)
			}
		}
	}
	return adj
}

// dfsVisit runs one DFS pass from id, returning the name of a vertex
// found on a back-edge (the cycle witness) or "" if none is reachable
// from id.
func dfsVisit(id string, adj map[string][]string, state map[string]vertexState) string {
	state[id] = gray
	for _, nbr := range adj[id] {
		switch state[nbr] {
		case white:
			if cyc := dfsVisit(nbr, adj, state); cyc != "" {
				return cyc
			}
		case gray:
			return nbr
		}
	}
	state[id] = black
	return ""
}
