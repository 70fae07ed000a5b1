// Package domain contains the core entities of the discussion-pairing
// platform: participants, the fixed opinion-dimension catalog, per-user
// opinion scores, and the pairing fields that link two participants into a
// scheduled meeting. Entities validate themselves; persistence and pairing
// policy live in other packages.
package domain
