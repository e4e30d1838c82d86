// Package hclconfig provides the HCL implementation of config.Loader.
//
// A topology file declares one block per node:
//
//	relay "0" {
//	  neighbors        = [1, 3, 10]
//	  drop_probability = 0.05
//	}
//	client "10" { neighbors = [0] }
//	server "12" { neighbors = [2, var.backup] }
//
// Expressions may refer to variables as var.<name> and call a small set of
// handful of functions (concat, range, min, max, try, can). try gives an
// optional variable a default: try(var.pdr, 0).
package hclconfig
