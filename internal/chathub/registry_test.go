package chathub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	a, b := &fakeConn{}, &fakeConn{}

	assert.True(t, r.Add(7, a), "first connection")
	assert.False(t, r.Add(7, b), "second connection")
	assert.Equal(t, 2, r.Count(7))
	assert.Equal(t, 1, r.Users())
	assert.Equal(t, []Conn{a, b}, r.Get(7))

	removed, emptied := r.Remove(7, a)
	assert.True(t, removed)
	assert.False(t, emptied)
	assert.Equal(t, []Conn{b}, r.Get(7))

	removed, emptied = r.Remove(7, b)
	assert.True(t, removed)
	assert.True(t, emptied)
	assert.False(t, r.Has(7), "entry must disappear with its last connection")
	assert.Nil(t, r.Get(7))
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{}
	r.Add(7, a)

	removed, emptied := r.Remove(7, &fakeConn{})
	assert.False(t, removed)
	assert.False(t, emptied)
	removed, _ = r.Remove(9, a)
	assert.False(t, removed)
	assert.Equal(t, 1, r.Count(7))
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	a, b := &fakeConn{}, &fakeConn{}
	r.Add(7, a)
	r.Add(7, b)

	snap := r.Get(7)
	r.Remove(7, a)
	require.Len(t, snap, 2)
	assert.Same(t, a, snap[0].(*fakeConn))
}

func TestRegistry_Drain(t *testing.T) {
	r := NewRegistry()
	r.Add(1, &fakeConn{})
	r.Add(2, &fakeConn{})
	r.Add(2, &fakeConn{})

	out := r.Drain()
	assert.Len(t, out, 2)
	assert.Len(t, out[2], 2)
	assert.Zero(t, r.Users())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			c := &fakeConn{}
			r.Add(uid%5, c)
			_ = r.Get(uid % 5)
			r.Remove(uid%5, c)
		}(uint(i))
	}
	wg.Wait()
	assert.Zero(t, r.Users())
}
