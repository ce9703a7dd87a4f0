package actorsys

import "sync"

// Mailbox is a single-consumer, multi-producer FIFO queue. The owning
// actor is the only reader; any other actor or host thread may write.
type Mailbox struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []interface{}
}

func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Send enqueues a message. Sends never block: the core has no backpressure
// policy by default (mailboxes are unbounded).
func (m *Mailbox) Send(v interface{}) {
	m.mu.Lock()
	m.queue = append(m.queue, v)
	m.mu.Unlock()
	m.cond.Signal()
}

// Recv blocks until a message is available, then returns it FIFO.
func (m *Mailbox) Recv() interface{} {
	m.mu.Lock()
	for len(m.queue) == 0 {
		m.cond.Wait()
	}
	v := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()
	return v
}

// Poll returns the next message without blocking, or ok=false if empty.
func (m *Mailbox) Poll() (v interface{}, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	v = m.queue[0]
	m.queue = m.queue[1:]
	return v, true
}
