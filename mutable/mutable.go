// Package mutable provides the channel that makes DSP units mutable while
// they run. A controller pushes commands with a Sender without blocking,
// the unit takes everything that is currently available with a Receiver
// at the start of its next processing call and applies it to itself.
package mutable

import "errors"

var (
	// ErrFull is returned when the receiver didn't keep up and the
	// command was dropped.
	ErrFull = errors.New("mutable: channel is full")
	// ErrClosed is returned when the counterpart of the channel is gone.
	ErrClosed = errors.New("mutable: channel is closed")
)

type (
	// Sender pushes commands to the receiver. It must be owned by a
	// single goroutine.
	Sender[T any] struct {
		c      chan T
		closed bool
	}

	// Receiver takes commands pushed by the sender. It must be owned by
	// a single goroutine.
	Receiver[T any] struct {
		c <-chan T
	}
)

// New returns a connected pair of sender and receiver that can hold up
// to capacity pending commands.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	c := make(chan T, capacity)
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Send pushes the command without blocking.
func (s *Sender[T]) Send(v T) error {
	if s.closed {
		return ErrClosed
	}
	select {
	case s.c <- v:
		return nil
	default:
		return ErrFull
	}
}

// Close signals the receiver that no more commands will be sent.
func (s *Sender[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.c)
}

// Drain appends all currently available commands to dst in send order
// and returns the extended slice. When the sender is closed, ErrClosed
// is returned once and all subsequent calls return nothing.
func (r *Receiver[T]) Drain(dst []T) ([]T, error) {
	for {
		select {
		case v, ok := <-r.c:
			if !ok {
				r.c = nil
				return dst, ErrClosed
			}
			dst = append(dst, v)
		default:
			return dst, nil
		}
	}
}

// Last takes all currently available commands and returns only the most
// recent one. False is returned if no commands were pending.
func (r *Receiver[T]) Last() (last T, ok bool, err error) {
	for {
		select {
		case v, open := <-r.c:
			if !open {
				r.c = nil
				return last, ok, ErrClosed
			}
			last, ok = v, true
		default:
			return last, ok, nil
		}
	}
}
