// Package symbolic is a symbolic model-composition and inference engine
// for computational graphs built from primitive operators and nested
// composite models.
//
// Given a hierarchical graph description (package graphdesc), it infers,
// for every port, without executing any numeric computation:
//
//	shape      — a vector of dimension variables and concrete integers,
//	             unified across connected ports (package shape)
//	type       — an element from a union-type lattice over
//	             {Bool, Int, Float, Tensor<E>} (package typelattice)
//	staticness — whether the port's value is determined at build time
//	             or only at runtime (package static)
//
// The pipeline: graphdesc decodes the description; graphir builds the
// validated port/connection graph, unifying shapes and types as it
// goes; infer validates the result is acyclic at every nesting level;
// static computes the least fixpoint of the build-time/runtime flag;
// summary renders the inferred graph as a hierarchical tabular report.
// cmd/symgraph wires the whole pipeline into a CLI.
package symbolic
