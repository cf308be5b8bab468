// Package share provides the inter-task data primitives: single-value
// shares and bounded queues. Under the cooperative scheduler only one task
// touches them at a time; protection is opt-in for code that also runs
// from goroutines (serial collection, TUI observers).
package share

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"
)

var (
	ErrFull  = errors.New("share: queue full")
	ErrEmpty = errors.New("share: queue empty")
)

type item interface {
	label() string
	kind() string
	length() int
	capacity() int
}

var (
	regMu    sync.Mutex
	registry []item
)

func register(it item) {
	regMu.Lock()
	registry = append(registry, it)
	regMu.Unlock()
}

// Report renders a table of every share and queue created so far.
func Report() string {
	regMu.Lock()
	defer regMu.Unlock()

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tLEN\tCAP")
	for _, it := range registry {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", it.label(), it.kind(), it.length(), it.capacity())
	}
	w.Flush()
	return b.String()
}

type Share[T any] struct {
	name    string
	mu      sync.Mutex
	protect bool
	val     T
}

func NewShare[T any](name string, protect bool) *Share[T] {
	s := &Share[T]{name: name, protect: protect}
	register(s)
	return s
}

func (s *Share[T]) Put(v T) {
	if s.protect {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	s.val = v
}

func (s *Share[T]) Get() T {
	if s.protect {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.val
}

func (s *Share[T]) label() string { return s.name }
func (s *Share[T]) kind() string  { return fmt.Sprintf("share[%T]", *new(T)) }
func (s *Share[T]) length() int   { return 1 }
func (s *Share[T]) capacity() int { return 1 }

// Queue is a bounded FIFO ring.
type Queue[T any] struct {
	name    string
	mu      sync.Mutex
	protect bool
	buf     []T
	head    int
	n       int
}

func NewQueue[T any](name string, cap int, protect bool) *Queue[T] {
	if cap <= 0 {
		cap = 1
	}
	q := &Queue[T]{name: name, protect: protect, buf: make([]T, cap)}
	register(q)
	return q
}

func (q *Queue[T]) lock() {
	if q.protect {
		q.mu.Lock()
	}
}

func (q *Queue[T]) unlock() {
	if q.protect {
		q.mu.Unlock()
	}
}

func (q *Queue[T]) Put(v T) error {
	q.lock()
	defer q.unlock()
	if q.n == len(q.buf) {
		return ErrFull
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
	return nil
}

func (q *Queue[T]) Get() (T, error) {
	q.lock()
	defer q.unlock()
	var zero T
	if q.n == 0 {
		return zero, ErrEmpty
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return v, nil
}

// Any reports whether the queue holds at least one value.
func (q *Queue[T]) Any() bool {
	q.lock()
	defer q.unlock()
	return q.n > 0
}

func (q *Queue[T]) Full() bool {
	q.lock()
	defer q.unlock()
	return q.n == len(q.buf)
}

func (q *Queue[T]) Len() int {
	q.lock()
	defer q.unlock()
	return q.n
}

func (q *Queue[T]) Clear() {
	q.lock()
	defer q.unlock()
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.head = 0
	q.n = 0
}

func (q *Queue[T]) label() string { return q.name }
func (q *Queue[T]) kind() string  { return fmt.Sprintf("queue[%T]", *new(T)) }
func (q *Queue[T]) length() int   { return q.Len() }
func (q *Queue[T]) capacity() int { return len(q.buf) }
