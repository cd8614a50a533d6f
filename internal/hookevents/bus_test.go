package hookevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitFansOutToAllSubscribers(t *testing.T) {
	b := New()
	var gotA, gotB []EventType
	b.Subscribe(func(et EventType, payload any) { gotA = append(gotA, et) })
	b.Subscribe(func(et EventType, payload any) { gotB = append(gotB, et) })

	b.Emit(HookStrategyStarted, "s1")
	b.Emit(HookStrategyCompleted, "s1")

	assert.Equal(t, []EventType{HookStrategyStarted, HookStrategyCompleted}, gotA)
	assert.Equal(t, []EventType{HookStrategyStarted, HookStrategyCompleted}, gotB)
}

func TestBus_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	b := New()
	var called bool
	b.Subscribe(func(et EventType, payload any) { panic("subscriber exploded") })
	b.Subscribe(func(et EventType, payload any) { called = true })

	assert.NotPanics(t, func() {
		b.Emit(HookExecutionStarted, "ruff-check")
	})
	assert.True(t, called)
}
