package scheduler

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/kilianp07/railsched/core/track"
)

// Request is a pending single-step move of one train.
type Request struct {
	TrainID int
	From    track.Location
	To      track.Location
	At      time.Time
}

// Before orders requests by time, then train id.
func (r Request) Before(o Request) bool {
	if !r.At.Equal(o.At) {
		return r.At.Before(o.At)
	}
	return r.TrainID < o.TrainID
}

func (r Request) String() string {
	return fmt.Sprintf("train %d %s -> %s at %s", r.TrainID, r.From, r.To, r.At.Format(time.RFC3339))
}

// requestQueue pops requests in (time, train id) order.
type requestQueue struct {
	items requestHeap
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{}
	heap.Init(&q.items)
	return q
}

func (q *requestQueue) Push(r Request) { heap.Push(&q.items, r) }

func (q *requestQueue) Pop() Request { return heap.Pop(&q.items).(Request) }

func (q *requestQueue) Len() int { return q.items.Len() }

type requestHeap []Request

func (h requestHeap) Len() int           { return len(h) }
func (h requestHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h requestHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(Request)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
