// Package static computes, for every port in a built graph, whether its
// value is known at build time (a literal pin, or a declared static
// external input, or anything derived purely from those) or only at
// runtime. It is a least-fixpoint computation over the acyclic
// port-connection graph: start assuming nothing is static, then
// repeatedly promote a port to static whenever its wiring justifies it,
// until a sweep makes no further change.
package static

import (
	"github.com/lucidgraph/symbolic/graphdesc"
	"github.com/lucidgraph/symbolic/graphir"
)

// Result records, for every port reachable from the graph Propagate was
// run on, whether its value is determined at build time.
type Result struct {
	static map[*graphir.Port]bool
}

// IsStatic reports whether p's value is known at build time.
func (r *Result) IsStatic(p *graphir.Port) bool {
	return r.static[p]
}

// Propagate computes the least fixpoint of the static flag over every
// port in g and its nested composites.
//
// A primitive's output port is static iff every one of its own declared
// input ports is static (SPEC_FULL.md's purity assumption: primitives
// have no side channel to runtime state). An input port's staticness
// comes from how it is wired: a literal pin is always static; a root
// external alias is static iff staticInputs names it; an internally
// wired input inherits the AND of its producers.
func Propagate(g *graphir.Graph, staticInputs graphdesc.StaticInputShapes) *Result {
	r := &Result{static: make(map[*graphir.Port]bool)}

	var vertices []*graphir.Vertex
	collect(g, &vertices)

	rounds := 1
	for _, v := range vertices {
		rounds += len(v.Ports)
	}

	for i := 0; i < rounds; i++ {
		changed := false
		for _, v := range vertices {
			if v.Kind != graphir.VertexPrimitive {
				continue
			}
			for _, p := range v.Ports {
				var want bool
				switch p.Role {
				case graphir.RoleInput:
					want = inputStatic(p, staticInputs, r)
				case graphir.RoleOutput:
					want = outputStatic(v, r)
				}
				if cur, ok := r.static[p]; !ok || cur != want {
					r.static[p] = want
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return r
}

func inputStatic(p *graphir.Port, staticInputs graphdesc.StaticInputShapes, r *Result) bool {
	switch p.Endpoint.Kind {
	case graphir.EndpointLiteral:
		return true
	case graphir.EndpointExternalAlias:
		_, ok := staticInputs[p.Endpoint.ExternalAlias]
		return ok
	case graphir.EndpointInternal:
		if len(p.Endpoint.Peers) == 0 {
			return false
		}
		for _, peer := range p.Endpoint.Peers {
			if !r.static[peer] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func outputStatic(v *graphir.Vertex, r *Result) bool {
	for _, p := range v.Ports {
		if p.Role == graphir.RoleInput && !r.static[p] {
			return false
		}
	}
	return true
}

// collect appends every vertex of g and, depth-first, every vertex of
// every nested composite.
func collect(g *graphir.Graph, out *[]*graphir.Vertex) {
	for _, v := range g.Vertices {
		*out = append(*out, v)
		if v.Kind == graphir.VertexComposite {
			collect(v.Sub, out)
		}
	}
}
