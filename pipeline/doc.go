// Package pipeline implements a computational pipeline engine: a directed
// acyclic graph of named nodes, each an opaque callable over its declared
// dependencies' values, executed in topological order to produce one or more
// requested outputs.
//
// A Pipeline is built incrementally with AddNode/MustAddNode, which validate
// the resulting graph stays acyclic before committing each change. Execute
// runs the minimal subset of nodes needed to produce the requested outputs,
// accepting bypass values (to skip a node and its now-unneeded ancestors) and
// virtual-input values (for dependencies that were referenced but never
// registered as nodes). ExtractSubgraph pulls an independent ancestor-closed
// Pipeline out of a larger one, and PrintSummary renders a topological
// listing for inspection.
package pipeline
