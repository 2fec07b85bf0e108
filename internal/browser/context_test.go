package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestCombineContext_CancelsOnSecondary(t *testing.T) {
	primary := context.Background()
	secondary, cancelSecondary := context.WithCancel(context.Background())

	combined, cancel := CombineContext(primary, secondary)
	defer cancel()

	cancelSecondary()

	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not observe secondary cancellation")
	}
	assert.ErrorIs(t, combined.Err(), context.Canceled)
}

func TestCombineContext_CancelsOnPrimary(t *testing.T) {
	primary, cancelPrimary := context.WithCancel(context.Background())
	secondary := context.Background()

	combined, cancel := CombineContext(primary, secondary)
	defer cancel()

	cancelPrimary()

	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not observe primary cancellation")
	}
}

func TestCombineContext_InheritsPrimaryValues(t *testing.T) {
	key := ctxKey("target")
	primary := context.WithValue(context.Background(), key, "tab-7")
	secondary := context.WithValue(context.Background(), key, "other")

	combined, cancel := CombineContext(primary, secondary)
	defer cancel()

	// Values come from the primary (session) side only.
	assert.Equal(t, "tab-7", combined.Value(key))
}

func TestDetach_KeepsValuesDropsCancellation(t *testing.T) {
	key := ctxKey("target")
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key, "tab-9"))
	cancel()

	detached := Detach(parent)

	require.Error(t, parent.Err())
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, "tab-9", detached.Value(key))
}
