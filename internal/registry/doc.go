// Package registry maps node roles to the constructors that build them.
//
// Modules contribute constructors through Module.Register. Each role keeps an
// ordered list, and the constructor for a node is picked deterministically
// from its id (id modulo list length), so the same topology always produces
// the same mix of behaviours. Clients come in two variants, web and chat,
// whose constructors take differently typed control channels; they share
// one list as the sealed IngressFactory sum type.
package registry
