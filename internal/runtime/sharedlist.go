package ompgort

import (
	"fmt"
	"sync/atomic"
)

// sharedNode is one entry of a SharedList: an append-only singly-linked
// list node published via an atomic pointer swap.
type sharedNode struct {
	tag   string
	value any
	next  atomic.Pointer[sharedNode]
}

// DivergenceError reports that two workers pushed different tags at the
// same list position, violating the "each worker must execute the same
// instruction stream" invariant.
type DivergenceError struct {
	Expected, Got string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("ompgort: worker-path divergence: expected tag %q, got %q", e.Expected, e.Got)
}

// SharedList is the append-only, lock-free shared-context list reachable
// from a team: the first worker to push at a position
// wins, and every other worker observes the published value. Pushing a
// tag different from the head of the expected position is a worker-path
// divergence error.
type SharedList struct {
	head atomic.Pointer[sharedNode]
}

// NewSharedList returns an empty shared list.
func NewSharedList() *SharedList { return &SharedList{} }

// NewCursor returns a fresh traversal/publish cursor positioned before
// the head.
func (l *SharedList) NewCursor() *SharedCursor {
	return &SharedCursor{list: l}
}

// SharedCursor is one worker's position in a SharedList: it both reads
// entries published by other workers and publishes this worker's own
// entries, advancing one position per call.
type SharedCursor struct {
	list *SharedList
	node *sharedNode
}

// Push publishes (tag, value) at the cursor's current position if no
// worker has published there yet, advancing the cursor to that entry. If
// another worker already won the race, Push advances to the winning
// entry and returns its value instead; if the winning entry's tag
// differs from tag, it returns a *DivergenceError.
func (c *SharedCursor) Push(tag string, value any) (any, error) {
	n := &sharedNode{tag: tag, value: value}
	var target *atomic.Pointer[sharedNode]
	if c.node == nil {
		target = &c.list.head
	} else {
		target = &c.node.next
	}
	if target.CompareAndSwap(nil, n) {
		c.node = n
		return value, nil
	}
	won := target.Load()
	c.node = won
	if won.tag != tag {
		return nil, &DivergenceError{Expected: won.tag, Got: tag}
	}
	return won.value, nil
}

// Next advances to and returns the next published entry, or ok=false if
// none is published yet at this position.
func (c *SharedCursor) Next() (tag string, value any, ok bool) {
	var next *sharedNode
	if c.node == nil {
		next = c.list.head.Load()
	} else {
		next = c.node.next.Load()
	}
	if next == nil {
		return "", nil, false
	}
	c.node = next
	return next.tag, next.value, true
}
