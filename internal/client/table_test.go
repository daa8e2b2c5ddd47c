package client

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

func TestNewEventID(t *testing.T) {
	pattern := regexp.MustCompile(`^_[0-9a-f]{8}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{12}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewEventID()
		require.Regexp(t, pattern, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestResolveRunsCallbacksInOrderOnce(t *testing.T) {
	table := NewTable()
	var order []string
	require.NoError(t, table.Register("_a", Callbacks{
		OnSuccess: func(data bridge.Data) { order = append(order, "success:"+data["message"].(string)) },
		OnFailure: func(bridge.Data) { order = append(order, "failure") },
		OnSettled: func() { order = append(order, "settled") },
	}))

	assert.True(t, table.Resolve("_a", true, bridge.Message("ok")))
	assert.False(t, table.Resolve("_a", false, bridge.Message("again")))

	assert.Equal(t, []string{"success:ok", "settled"}, order)
	assert.False(t, table.Has("_a"))
	assert.Zero(t, table.Len())
}

func TestResolveFailure(t *testing.T) {
	table := NewTable()
	var got bridge.Data
	require.NoError(t, table.Register("_a", Callbacks{
		OnFailure: func(data bridge.Data) { got = data },
	}))

	table.Resolve("_a", false, bridge.Message("no database is open"))

	assert.Equal(t, "no database is open", got["message"])
	_, hasResults := got["results"]
	assert.False(t, hasResults)
}

func TestResolveUnknownIsNoop(t *testing.T) {
	table := NewTable()
	assert.False(t, table.Resolve("_missing", true, nil))
	assert.False(t, table.NotifyProgress("_missing", 0.5))
}

func TestNilCallbacksAreTolerated(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register("_a", Callbacks{}))
	assert.False(t, table.NotifyProgress("_a", 0.3))
	assert.True(t, table.Resolve("_a", true, nil))
}

func TestProgressAfterResolveHasNoEffect(t *testing.T) {
	table := NewTable()
	var fractions []float64
	require.NoError(t, table.Register("_dl", Callbacks{
		OnProgress: func(f float64) { fractions = append(fractions, f) },
	}))

	table.NotifyProgress("_dl", 0.25)
	table.Resolve("_dl", true, nil)
	table.NotifyProgress("_dl", 0.5)

	assert.Equal(t, []float64{0.25}, fractions)
}

func TestEntryRemovedOnlyAfterCallbacksReturn(t *testing.T) {
	table := NewTable()
	var during bool
	var reentrant bool
	require.NoError(t, table.Register("_a", Callbacks{
		OnSuccess: func(bridge.Data) {
			during = table.Has("_a")
			reentrant = table.Resolve("_a", false, nil)
			require.NoError(t, table.Register("_b", Callbacks{}))
		},
	}))

	table.Resolve("_a", true, nil)

	assert.True(t, during, "entry stays until callbacks finish")
	assert.False(t, reentrant, "re-entrant resolve is a no-op")
	assert.False(t, table.Has("_a"))
	assert.True(t, table.Has("_b"), "callbacks may register new requests")
}

func TestEntryRemovedWhenCallbackPanics(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		cb      func(func()) Callbacks
	}{
		{"success", true, func(boom func()) Callbacks {
			return Callbacks{OnSuccess: func(bridge.Data) { boom() }}
		}},
		{"failure", false, func(boom func()) Callbacks {
			return Callbacks{OnFailure: func(bridge.Data) { boom() }}
		}},
		{"settled", true, func(boom func()) Callbacks {
			return Callbacks{OnSettled: boom}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			require.NoError(t, table.Register("_a", tt.cb(func() { panic("callback failed") })))

			assert.Panics(t, func() { table.Resolve("_a", tt.success, nil) })
			assert.False(t, table.Has("_a"))
			assert.Equal(t, 0, table.Len())
			assert.NoError(t, table.Register("_a", Callbacks{}), "id is free again")
		})
	}
}

func TestRegisterRejectsDuplicateIDs(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register("_a", Callbacks{}))
	assert.ErrorIs(t, table.Register("_a", Callbacks{}), ErrDuplicateEventID)
}

func TestSweep(t *testing.T) {
	now := time.Unix(1700000000, 0)
	table := NewTable(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	var expired bridge.Data
	require.NoError(t, table.Register("_old", Callbacks{OnFailure: func(d bridge.Data) { expired = d }}))
	now = now.Add(30 * time.Second)
	require.NoError(t, table.Register("_new", Callbacks{}))
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, table.Sweep())
	assert.Equal(t, ExpiredMessage, expired["message"])
	assert.False(t, table.Has("_old"))
	assert.True(t, table.Has("_new"))
}

func TestSweepDisabledByDefault(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register("_a", Callbacks{}))
	assert.Zero(t, table.Sweep())
	assert.True(t, table.Has("_a"))
}
