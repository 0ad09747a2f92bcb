package ompgort

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexExcludes(t *testing.T) {
	m := NewMutex()

	counter := 0
	var wg sync.WaitGroup
	for wid := int64(0); wid < 8; wid++ {
		wg.Add(1)
		go func(wid int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.WithLock(wid, func() { counter++ })
			}
		}(wid)
	}
	wg.Wait()

	assert.Equal(t, 800, counter)
}

func TestRecursiveMutexReenters(t *testing.T) {
	m := NewRecursiveMutex()

	m.Lock(1)
	m.Lock(1) // same owner: depth, not deadlock
	assert.False(t, m.TryLock(2))
	m.Unlock(1)
	assert.False(t, m.TryLock(2), "still held at depth 1")
	m.Unlock(1)
	assert.True(t, m.TryLock(2))
	m.Unlock(2)
}

func TestNonRecursiveTryLock(t *testing.T) {
	m := NewMutex()

	require.True(t, m.TryLock(1))
	assert.False(t, m.TryLock(2))
	m.Unlock(1)
	assert.True(t, m.TryLock(2))
	m.Unlock(2)
}

func TestMutexReleasedOnPanic(t *testing.T) {
	m := NewMutex()

	func() {
		defer func() { _ = recover() }()
		m.WithLock(1, func() { panic("inside") })
	}()

	assert.True(t, m.TryLock(2), "lock must be released when the body panics")
	m.Unlock(2)
}

func TestEventOneShot(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.Done())

	released := make(chan struct{})
	go func() {
		e.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Wait returned before Notify")
	case <-time.After(10 * time.Millisecond):
	}

	e.Notify()
	e.Notify() // second notify is a no-op

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Notify")
	}
	assert.True(t, e.Done())
	e.Wait() // subsequent waits return immediately
}

func TestAtomicFlagTestAndSet(t *testing.T) {
	var f AtomicFlag

	assert.True(t, f.TestAndSet(), "first transition false->true")
	assert.False(t, f.TestAndSet())
	assert.True(t, f.IsSet())

	f.Clear()
	assert.False(t, f.IsSet())
	assert.True(t, f.NoClearTestAndSet())
	assert.False(t, f.NoClearTestAndSet())
}

func TestAtomicIntOperations(t *testing.T) {
	a := NewAtomicInt(0b1100)

	assert.Equal(t, int64(0b1100), a.Get())
	assert.Equal(t, int64(0b1000), a.And(0b1010))
	assert.Equal(t, int64(0b1010), a.Or(0b0010))
	assert.Equal(t, int64(0b0110), a.Xor(0b1100))

	a.Set(10)
	assert.Equal(t, int64(13), a.Add(3))
	assert.Equal(t, int64(12), a.Sub(1))
	assert.Equal(t, int64(12), a.Exchange(7))
	assert.Equal(t, int64(7), a.Get())

	assert.False(t, a.CompareExchangeStrong(8, 9))
	assert.True(t, a.CompareExchangeStrong(7, 9))
	assert.True(t, a.CompareExchangeWeak(9, 10))
	assert.Equal(t, int64(10), a.Get())
}

func TestAtomicIntContention(t *testing.T) {
	a := NewAtomicInt(0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				a.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), a.Get())
}

func TestNamedMutexSameNameSameLock(t *testing.T) {
	m1 := NamedMutex("__atomic__")
	m2 := NamedMutex("__atomic__")
	assert.Same(t, m1, m2)
	assert.NotSame(t, m1, NamedMutex("other"))
}

func TestScanCellFoldSerializes(t *testing.T) {
	cell := NewScanCell()

	total := 0
	var wg sync.WaitGroup
	for wid := int64(0); wid < 4; wid++ {
		wg.Add(1)
		go func(wid int64) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				cell.Fold(wid, func() { total++ })
			}
		}(wid)
	}
	wg.Wait()

	assert.Equal(t, 1000, total)
}
