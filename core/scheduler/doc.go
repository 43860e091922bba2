// Package scheduler turns a batch of trains into a conflict-free schedule.
//
// Each train's route is expanded into a sequence of track locations by the
// PathBuilder. The Generator then runs a discrete-event simulation: one
// pending move per train sits in a priority queue ordered by (time, train
// id), and every popped move is either committed to the schedule or turned
// into a wait followed by a retry once the opposing train has cleared the
// single-track resource.
package scheduler
