// Package lotscan provides a multi-tier, self-learning extraction engine
// that turns an arbitrary dealership website into a normalized list of
// vehicle records. It tries increasingly expensive strategies in order
// (network API interception, embedded structured data, CSS selector
// discovery, vision-model fallback) and remembers per domain which
// strategy last worked so future visits can skip straight to it.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/,
// goquery/, gemini/, sqlite/).
package lotscan
