package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestQueueOrder(t *testing.T) {
	q := newRequestQueue()
	q.Push(Request{TrainID: 3, At: at(10)})
	q.Push(Request{TrainID: 2, At: at(5)})
	q.Push(Request{TrainID: 1, At: at(10)})
	q.Push(Request{TrainID: 4, At: at(0)})

	var got []int
	for q.Len() > 0 {
		got = append(got, q.Pop().TrainID)
	}
	assert.Equal(t, []int{4, 2, 1, 3}, got)
}
