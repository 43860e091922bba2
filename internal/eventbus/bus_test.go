package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if bus.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestBusDropsOnFullBuffer(t *testing.T) {
	bus := New[int](WithBuffer(2))
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	if got := bus.Dropped(); got != 3 {
		t.Fatalf("expected 3 dropped got %d", got)
	}
	if v := <-ch; v != 0 {
		t.Fatalf("expected first event kept, got %d", v)
	}
}

func TestBusCloseDrainsBuffered(t *testing.T) {
	bus := New[int]()
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	bus.Close()
	var got []int
	for v := range ch {
		got = append(got, v)
	}
	if len(got) != 2 {
		t.Fatalf("expected buffered events after close, got %v", got)
	}
	bus.Publish(3)
	if late := bus.Subscribe(); late != nil {
		if _, ok := <-late; ok {
			t.Fatalf("subscribe after close must return a closed channel")
		}
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New[string]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
