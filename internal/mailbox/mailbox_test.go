package mailbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFO(t *testing.T) {
	t.Parallel()

	tx, rx := New[int]()
	for i := range 5 {
		tx.Send(i)
	}
	require.Equal(t, 5, rx.Len())

	for want := range 5 {
		got, ok := rx.TryRecv()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := rx.TryRecv()
	assert.False(t, ok)
	assert.Zero(t, rx.Len())
}

func TestMailbox_CopiedSenderFeedsSameQueue(t *testing.T) {
	t.Parallel()

	tx, rx := New[string]()
	clone := tx
	clone.Send("a")
	rx.Sender().Send("b")

	assert.True(t, tx.Same(clone))
	assert.True(t, tx.Same(rx.Sender()))
	other, _ := New[string]()
	assert.False(t, tx.Same(other))

	first, _ := rx.TryRecv()
	second, _ := rx.TryRecv()
	assert.Equal(t, []string{"a", "b"}, []string{first, second})
}

func TestMailbox_RecvBlocksUntilSend(t *testing.T) {
	t.Parallel()

	tx, rx := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		tx.Send(42)
	}()

	got, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestMailbox_RecvHonoursContext(t *testing.T) {
	t.Parallel()

	_, rx := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailbox_ManyProducers(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	const producers, perProducer = 8, 250
	tx, rx := New[int]()

	// --- Act ---
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(s Sender[int]) {
			defer wg.Done()
			for i := range perProducer {
				s.Send(p*perProducer + i)
			}
		}(tx)
	}
	wg.Wait()

	// --- Assert ---
	seen := make(map[int]bool)
	lastPerProducer := make(map[int]int)
	for {
		v, ok := rx.TryRecv()
		if !ok {
			break
		}
		p := v / perProducer
		if last, ok := lastPerProducer[p]; ok {
			assert.Greater(t, v, last, "values from one producer must stay ordered")
		}
		lastPerProducer[p] = v
		seen[v] = true
	}
	assert.Len(t, seen, producers*perProducer)
}

func TestMailbox_ReadySignalsPendingValues(t *testing.T) {
	t.Parallel()

	tx, rx := New[int]()
	tx.Send(1)
	tx.Send(2)

	select {
	case <-rx.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready channel was not signalled")
	}

	var drained []int
	for {
		v, ok := rx.TryRecv()
		if !ok {
			break
		}
		drained = append(drained, v)
	}
	assert.Equal(t, []int{1, 2}, drained)
}

func TestSender_ZeroValue(t *testing.T) {
	t.Parallel()

	var s Sender[int]
	assert.False(t, s.Valid())
	assert.Panics(t, func() { s.Send(1) })

	tx, _ := New[int]()
	assert.True(t, tx.Valid())
}
