// Package topology holds the static description of a mesh network: relay
// nodes that forward traffic, ingress nodes (clients) that originate requests,
// and terminus nodes (servers) that answer them.
//
// # Lifecycle
//
// A Topology is produced once by a config loader, validated, and then treated
// as immutable. Every component that needs structural queries (validator, mesh
// builder, orchestrator, supervisor) shares a single Graph built from it with
// NewGraph, so neighbour resolution lives in one place.
package topology
