package eventbus

import "testing"

func TestBusEmitWithoutRegistrationIsNoop(t *testing.T) {
	b := NewBus()
	b.EmitLifecycle(Lifecycle{Kind: LifecycleActive, SessionID: "s1"})
	b.EmitProgress(Progress{Kind: ProgressConnecting})
	b.EmitData(Data{Kind: DataMicMuted, Muted: true})
	b.EmitError(Error{Kind: ErrorConnection})
}

func TestBusDeliversToRegisteredCallback(t *testing.T) {
	b := NewBus()

	var got Lifecycle
	b.OnLifecycle(func(e Lifecycle) { got = e })
	b.EmitLifecycle(Lifecycle{Kind: LifecycleFinalizing, SessionID: "abc"})
	if got.Kind != LifecycleFinalizing || got.SessionID != "abc" {
		t.Fatalf("unexpected lifecycle event: %+v", got)
	}
}

func TestBusRegistrationReplacesPrevious(t *testing.T) {
	b := NewBus()

	var calls int
	b.OnProgress(func(Progress) { calls++ })
	b.OnProgress(func(Progress) { calls += 10 })

	b.EmitProgress(Progress{Kind: ProgressAudioReady, Device: "mic0"})
	if calls != 10 {
		t.Fatalf("expected only the latest registration to fire, got calls=%d", calls)
	}
}
