package dom

import (
	"errors"
	"reflect"
	"testing"
)

func TestLoopRunDrainsMicrotasks(t *testing.T) {
	loop := NewLoop(nil)
	var log []string

	loop.Run(func() error {
		log = append(log, "task")
		loop.Schedule(func() {
			log = append(log, "micro-1")
			loop.Schedule(func() { log = append(log, "micro-3") })
		})
		loop.Schedule(func() { log = append(log, "micro-2") })
		log = append(log, "task-end")
		return nil
	})

	expected := []string{"task", "task-end", "micro-1", "micro-2", "micro-3"}
	if !reflect.DeepEqual(log, expected) {
		t.Errorf("order = %v, want %v", log, expected)
	}
	if loop.Pending() != 0 {
		t.Errorf("pending = %d after Run", loop.Pending())
	}
}

func TestLoopReportsMicrotaskErrors(t *testing.T) {
	loop := NewLoop(nil)
	first := errors.New("first")
	second := errors.New("second")
	var reported []error
	remove := loop.OnError(func(err error) { reported = append(reported, err) })

	loop.Run(func() error {
		loop.QueueMicrotask(func() error { return first })
		loop.QueueMicrotask(func() error { panic(second) })
		return nil
	})

	if len(reported) != 2 {
		t.Fatalf("reported %d errors, want 2", len(reported))
	}
	if reported[0] != first {
		t.Errorf("reported[0] = %v", reported[0])
	}
	if !errors.Is(reported[1], second) {
		t.Errorf("panic should be reported as an error wrapping its value, got %v", reported[1])
	}

	remove()
	loop.ReportError(errors.New("logged"))
	if len(reported) != 2 {
		t.Error("removed handler should not be called")
	}
}

func TestLoopTaskErrorIsReported(t *testing.T) {
	loop := NewLoop(nil)
	var got error
	loop.OnError(func(err error) { got = err })

	want := errors.New("task failed")
	loop.Run(func() error { return want })

	if got != want {
		t.Errorf("reported = %v, want %v", got, want)
	}
}

func TestLoopHandlersInRegistrationOrder(t *testing.T) {
	loop := NewLoop(nil)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		loop.OnError(func(error) { order = append(order, i) })
	}

	loop.ReportError(errors.New("x"))

	if !reflect.DeepEqual(order, []int{0, 1, 2, 3, 4}) {
		t.Errorf("order = %v", order)
	}
}

func TestDrainOutsideRun(t *testing.T) {
	loop := NewLoop(nil)
	ran := false
	loop.Schedule(func() { ran = true })

	if ran {
		t.Fatal("microtask ran before drain")
	}
	loop.Drain()
	if !ran {
		t.Error("Drain should run queued microtasks")
	}
}
