// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavesim

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workgroupPool executes the waves of a dispatch on a fixed set of
// goroutines, the way a GPU spreads workgroups over compute units.
//
// Each worker owns a queue of wave indices and steals from the other queues
// when its own is empty, so a slow wave does not hold back the rest of the
// dispatch. Waves write disjoint output ranges and need no locking.
type workgroupPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// newWorkgroupPool starts workers goroutines. Zero or negative means
// GOMAXPROCS.
func newWorkgroupPool(workers int) *workgroupPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &workgroupPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *workgroupPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case fn := <-own:
			fn()
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case fn := <-own:
				fn()
			}
		}
	}
}

func (p *workgroupPool) drain(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			fn()
		default:
			return
		}
	}
}

// steal takes one queued wave from another worker, or returns nil.
func (p *workgroupPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// run calls fn for every group in [0, groups) and returns when all calls
// finished. Groups are dealt round-robin over the worker queues. On a
// closed pool the groups run on the calling goroutine.
func (p *workgroupPool) run(groups int, fn func(g int)) {
	if groups <= 0 {
		return
	}
	if !p.running.Load() {
		for g := range groups {
			fn(g)
		}
		return
	}

	var pending sync.WaitGroup
	pending.Add(groups)
	for g := range groups {
		p.queues[g%p.workers] <- func() {
			defer pending.Done()
			fn(g)
		}
	}
	pending.Wait()
}

// close stops the workers after the queued waves ran. Safe to call twice.
func (p *workgroupPool) close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
