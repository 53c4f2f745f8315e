package hook

import (
	"context"
	"log"
	"sync"
)

// DefaultQueueSize bounds the switches waiting for hooks.
const DefaultQueueSize = 16

// Dispatcher runs hooks for emote switches on a background goroutine so the
// render loop never waits on them. Switches arriving while the queue is full
// are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan *Request
	wg       sync.WaitGroup
	once     sync.Once

	// OnResult is called on the worker after each hook run. Set it before
	// the first Dispatch.
	OnResult func(h *Hook, resp *Response, err error)
}

// NewDispatcher creates a Dispatcher and starts its worker.
func NewDispatcher(m *Manager, e *Executor, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		manager:  m,
		executor: e,
		queue:    make(chan *Request, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch queues a switch. It never blocks and reports whether the switch
// was queued.
func (d *Dispatcher) Dispatch(req *Request) bool {
	if req.Event == "" {
		req.Event = "switch"
	}
	select {
	case d.queue <- req:
		return true
	default:
		log.Printf("Hook queue full, dropping switch to %s", req.Label)
		return false
	}
}

// Close waits for queued switches to finish. Dispatch must not be called
// after Close.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for req := range d.queue {
		for _, h := range d.manager.For(req.Label) {
			r := *req
			resp, err := d.executor.Execute(context.Background(), h, &r)
			switch {
			case err != nil:
				log.Printf("Hook %s error: %v", h.Manifest.Name, err)
			case !resp.Success:
				log.Printf("Hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
			if d.OnResult != nil {
				d.OnResult(h, resp, err)
			}
		}
	}
}
