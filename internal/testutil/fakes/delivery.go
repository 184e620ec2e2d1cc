package fakes

import (
	"context"
	"sync"

	"github.com/dhima/webhook-delivery-engine/internal/delivery"
	"github.com/dhima/webhook-delivery-engine/platform/events"
)

// FakeDeliverer returns scripted outcomes per event ID and records every
// request it sees.
type FakeDeliverer struct {
	mu       sync.Mutex
	requests []delivery.Request
	scripts  map[string][]delivery.Outcome
	fallback delivery.Outcome
}

// NewFakeDeliverer builds a deliverer that answers fallback for any event
// without a script.
func NewFakeDeliverer(fallback delivery.Outcome) *FakeDeliverer {
	return &FakeDeliverer{
		scripts:  make(map[string][]delivery.Outcome),
		fallback: fallback,
	}
}

// Script queues outcomes for one event ID, consumed in order. After the
// script runs out the fallback outcome is returned.
func (d *FakeDeliverer) Script(eventID string, outcomes ...delivery.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[eventID] = append(d.scripts[eventID], outcomes...)
}

func (d *FakeDeliverer) Deliver(_ context.Context, req delivery.Request) delivery.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)
	if queued := d.scripts[req.EventID]; len(queued) > 0 {
		outcome := queued[0]
		d.scripts[req.EventID] = queued[1:]
		return outcome
	}
	return d.fallback
}

// Requests returns every delivery request seen so far.
func (d *FakeDeliverer) Requests() []delivery.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery.Request(nil), d.requests...)
}

// RequestsFor returns the requests made for one event ID.
func (d *FakeDeliverer) RequestsFor(eventID string) []delivery.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []delivery.Request
	for _, req := range d.requests {
		if req.EventID == eventID {
			out = append(out, req)
		}
	}
	return out
}

// FakePublisher records published invocation records.
type FakePublisher struct {
	mu      sync.Mutex
	records []events.InvocationRecord

	Err error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (p *FakePublisher) Publish(_ context.Context, rec events.InvocationRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.records = append(p.records, rec)
	return nil
}

// Records returns the published records in order.
func (p *FakePublisher) Records() []events.InvocationRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.InvocationRecord(nil), p.records...)
}
