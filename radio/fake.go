package radio

import (
	"context"
	"sync"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Fake is an in-memory Driver test double: it records every submitted
// request, lets tests inject indications/confirms, and stores
// parameters in a plain map.
type Fake struct {
	mu         sync.Mutex
	nextReqID  uint8
	Requests   []Request
	params     map[string]interface{}
	listener   Listener
	FailSubmit error
}

func NewFake() *Fake {
	return &Fake{params: make(map[string]interface{})}
}

// SetListener registers the listener that Deliver/Confirm dispatch to.
func (f *Fake) SetListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

func (f *Fake) SubmitAPSRequest(ctx context.Context, req Request) (RequestID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSubmit != nil {
		return 0, f.FailSubmit
	}
	f.nextReqID++
	f.Requests = append(f.Requests, req)
	return RequestID(f.nextReqID), nil
}

func (f *Fake) GetParameter(key string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.params[key]
	if !ok {
		return nil, drcerr.New(drcerr.NotFound, "radio.Fake.GetParameter", "no such parameter").WithDetailsf("key=%s", key)
	}
	return v, nil
}

func (f *Fake) SetParameter(key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[key] = value
	return nil
}

// Deliver hands an indication to the registered listener, simulating an
// inbound radio frame.
func (f *Fake) Deliver(ind Indication) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l.OnAPSDataIndication(ind)
	}
}

// Confirm hands a confirm to the registered listener.
func (f *Fake) Confirm(conf Confirm) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l.OnAPSDataConfirm(conf)
	}
}
