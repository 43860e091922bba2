// Package dispatch commits planned trains. A committed train is frozen in
// the dispatch history and its events are carried unchanged into every later
// schedule.
package dispatch
