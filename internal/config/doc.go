// Package config loads topology descriptions from disk.
//
// A topology may be split across several files, in any of the formats a
// registered Loader understands. Each file is translated by its loader into
// format-agnostic Declarations, converted to a topology.Topology and merged.
// Concrete loaders live in separate packages (hclconfig, yamlconfig).
package config
