package asyncrt

import "testing"

func TestNoOpWaker_WakeIsHarmless(t *testing.T) {
	NoOpWaker.Wake() // must not panic
}

func TestWakerFunc_InvokesUnderlyingFunc(t *testing.T) {
	called := false
	var w Waker = WakerFunc(func() { called = true })
	w.Wake()
	if !called {
		t.Fatal("WakerFunc.Wake did not invoke the wrapped function")
	}
}
