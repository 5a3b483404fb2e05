package project

import (
	"sync"

	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/overlay"

	"github.com/tliron/commonlog"
)

// Propagator forwards interrupts to a Compiler in submission order. Sending
// never blocks the caller: interrupts are queued and delivered by a single
// worker goroutine.
type Propagator struct {
	compiler Compiler
	metrics  *metrics.Metrics
	log      commonlog.Logger

	mu      sync.Mutex
	queue   []Interrupt
	wake    chan struct{}
	stopped bool

	// sent and delivered count interrupts; drained is signalled whenever
	// delivered grows.
	sent      uint64
	delivered uint64
	drained   *sync.Cond

	done chan struct{}
}

// NewPropagator starts a worker delivering to compiler. m may be nil.
func NewPropagator(compiler Compiler, m *metrics.Metrics) *Propagator {
	p := &Propagator{
		compiler: compiler,
		metrics:  m,
		log:      commonlog.GetLogger("tinymist.project"),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	p.drained = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Memory forwards an overlay change set. Empty change sets are dropped.
func (p *Propagator) Memory(cs overlay.ChangeSet) {
	if cs.IsEmpty() {
		return
	}
	p.send(MemoryInterrupt{Changes: cs})
}

// ChangeTask asks the compile subsystem to switch task id to inputs.
func (p *Propagator) ChangeTask(id TaskID, inputs TaskInputs) {
	p.send(ChangeTaskInterrupt{ID: id, Inputs: inputs})
}

func (p *Propagator) send(intr Interrupt) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.log.Warningf("dropping %s interrupt after shutdown", intr.Kind())
		return
	}
	p.queue = append(p.queue, intr)
	p.sent++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Propagator) run() {
	defer close(p.done)
	for range p.wake {
		for {
			p.mu.Lock()
			if len(p.queue) == 0 {
				stopped := p.stopped
				p.mu.Unlock()
				if stopped {
					return
				}
				break
			}
			intr := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()

			p.deliver(intr)
		}
	}
}

func (p *Propagator) deliver(intr Interrupt) {
	p.log.Debugf("delivering %s interrupt", intr.Kind())
	p.compiler.Interrupt(intr)
	p.metrics.RecordInterrupt(intr.Kind())

	p.mu.Lock()
	p.delivered++
	p.mu.Unlock()
	p.drained.Broadcast()
}

// Flush waits until every interrupt sent before the call has been
// delivered. Interrupts sent concurrently are not waited for.
func (p *Propagator) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := p.sent
	for p.delivered < target {
		p.drained.Wait()
	}
}

// Close delivers the queued interrupts and stops the worker. Interrupts sent
// afterwards are dropped.
func (p *Propagator) Close() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.stopped = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done
	p.log.Info("propagator stopped")
}
