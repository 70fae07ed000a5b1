// Package store defines persistence interfaces for the matching engine:
// participants with their pairing fields, questionnaire answers, and the
// read-only dimension catalog. Implementations live under
// internal/platform; services depend only on these interfaces so the engine
// can be tested against in-memory fakes.
package store
