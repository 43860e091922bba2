// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - PlanEvent: a schedule was generated
//   - ConflictEvent: the generator inserted a wait
//   - DispatchEvent: a train's plan was committed
package events
