package driver

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelator_RegisterAssignsUniqueIDs(t *testing.T) {
	corr := newCorrelator()

	const callers = 100
	ids := make(chan uint64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _, err := corr.register()
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, callers)
	assert.Equal(t, callers, corr.pendingCount())
}

func TestCorrelator_ResolveDeliversToItsWaiterOnly(t *testing.T) {
	corr := newCorrelator()
	idA, chA, err := corr.register()
	require.NoError(t, err)
	idB, chB, err := corr.register()
	require.NoError(t, err)

	body := "for-b"
	require.True(t, corr.resolve(idB, inbound{Result: body}))

	select {
	case res := <-chB:
		assert.Equal(t, body, res.in.Result)
	case <-time.After(time.Second):
		t.Fatal("reply not delivered")
	}
	select {
	case <-chA:
		t.Fatal("reply leaked to the wrong waiter")
	default:
	}

	// idB is spent, idA is still pending.
	assert.False(t, corr.resolve(idB, inbound{}))
	assert.Equal(t, 1, corr.pendingCount())
	_ = idA
}

func TestCorrelator_ResolveUnknownID(t *testing.T) {
	corr := newCorrelator()
	assert.False(t, corr.resolve(42, inbound{}))
}

func TestCorrelator_DropDiscardsLateReply(t *testing.T) {
	corr := newCorrelator()
	id, ch, err := corr.register()
	require.NoError(t, err)

	corr.drop(id)
	assert.Equal(t, 0, corr.pendingCount())
	assert.False(t, corr.resolve(id, inbound{Result: "late"}))
	select {
	case <-ch:
		t.Fatal("dropped waiter must not receive")
	default:
	}
}

func TestCorrelator_FailAllResolvesEveryWaiterOnce(t *testing.T) {
	corr := newCorrelator()
	boom := errors.New("link down")

	const waiters = 8
	chans := make([]chan rpcResult, waiters)
	for i := range chans {
		_, ch, err := corr.register()
		require.NoError(t, err)
		chans[i] = ch
	}

	corr.failAll(boom)

	for _, ch := range chans {
		select {
		case res := <-ch:
			assert.ErrorIs(t, res.err, boom)
		case <-time.After(time.Second):
			t.Fatal("waiter not resolved by failAll")
		}
	}
	assert.Equal(t, 0, corr.pendingCount())

	// The correlator stays closed afterwards.
	_, _, err := corr.register()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, corr.resolve(1, inbound{}))

	corr.failAll(boom)
}
