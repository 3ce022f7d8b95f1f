package common

import "iter"

type YieldFn[T any, K any] func(T, K) (stopIterating bool)

type MapperFn[T any, K any] func(fn YieldFn[T, K])

// Generator is a lazy, single pass sequence. The mapper runs on the caller's
// goroutine: values are pulled one at a time and the mapper is suspended in
// between, so nothing is computed past the last value consumed.
type Generator[T any, K any] struct {
	mapper  MapperFn[T, K]
	next    func() (T, K, bool)
	stop    func()
	started bool
	done    bool
}

func NewGenerator[T any, K any](mapper MapperFn[T, K]) *Generator[T, K] {
	return &Generator[T, K]{
		mapper: mapper,
	}
}

func EmptyGenerator[T any, K any]() *Generator[T, K] {
	return NewGenerator(func(yield YieldFn[T, K]) {})
}

func (p *Generator[T, K]) seq() iter.Seq2[T, K] {
	return func(yield func(T, K) bool) {
		p.mapper(func(value T, key K) bool {
			return !yield(value, key)
		})
	}
}

func (p *Generator[T, K]) Start() {
	if p.started {
		return
	}
	p.started = true
	p.next, p.stop = iter.Pull2(p.seq())
}

// Next returns the next value; done is true once the sequence is exhausted.
func (p *Generator[T, K]) Next() (value T, key K, done bool) {
	if p.done {
		return value, key, true
	}
	if !p.started {
		p.Start()
	}
	value, key, ok := p.next()
	if !ok {
		p.done = true
		p.stop()
	}
	return value, key, !ok
}

func (p *Generator[T, K]) Cancel() {
	if p.done {
		return
	}
	p.done = true
	if p.started {
		p.stop()
	}
}

// Each calls f for every remaining value until f returns true.
func (p *Generator[T, K]) Each(f func(value T, idx K) bool) {
	for {
		value, idx, done := p.Next()
		if done {
			break
		}
		if f(value, idx) {
			p.Cancel()
			break
		}
	}
}

func (p *Generator[T, K]) All() []T {
	var values []T
	p.Each(func(value T, idx K) bool {
		values = append(values, value)
		return false
	})
	return values
}
