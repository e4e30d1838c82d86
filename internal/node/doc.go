// Package node holds what every mesh node has in common: the Runnable
// capability, the Endpoints it is wired to, the one-hop Forward primitive
// and the lifecycle Status the orchestrator tracks per launched goroutine.
package node
