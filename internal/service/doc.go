// Package service wires the domain logic to the stores. Services accept
// store interfaces and return domain types; transactional orchestration
// (the symmetric pairing commit in particular) lives here, not in handlers.
package service
