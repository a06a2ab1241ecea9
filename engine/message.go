package engine

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"

	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/resource"
)

// serials numbers inbound messages for log correlation.
var serials atomix.Uint32

func nextSerial() uint32 {
	return serials.Add(1)
}

// PlatformMessage is one inbound message with its optional reply capability.
type PlatformMessage struct {
	Channel  string
	Payload  []byte
	Serial   uint32
	response *ResponseHandle
}

// ExpectsResponse reports whether the message still carries a reply capability.
func (m *PlatformMessage) ExpectsResponse() bool {
	return m.response != nil
}

// TakeResponse moves the reply capability out of the message.
// Later calls return nil.
func (m *PlatformMessage) TakeResponse() *ResponseHandle {
	r := m.response
	m.response = nil
	return r
}

const (
	statePending uint32 = iota
	stateResponded
	stateDiscarded
	stateReleased
)

// ResponseHandle is a one-shot capability to answer an inbound message.
// It is consumed by Boundary.Respond or Boundary.Discard; using it twice
// panics. Handles still pending when the boundary closes are answered with
// an empty response.
type ResponseHandle struct {
	channel  string
	serial   uint32
	native   NativeResponse
	handle   resource.Handle
	state    atomic.Uint32
	boundary *Boundary
}

// Channel returns the channel the original message arrived on.
func (h *ResponseHandle) Channel() string {
	return h.channel
}

// Serial returns the serial of the original message.
func (h *ResponseHandle) Serial() uint32 {
	return h.serial
}

// consume marks the handle used. It returns false when the boundary already
// released it at shutdown and panics on any other reuse.
func (h *ResponseHandle) consume(to uint32) bool {
	if h.state.CompareAndSwap(statePending, to) {
		return true
	}
	if h.state.Load() == stateReleased {
		return false
	}
	panic(errors.AlreadyConsumed(h.channel))
}

// Drop answers a still-pending handle with an empty response when the
// pending table is closed.
func (h *ResponseHandle) Drop() {
	if !h.state.CompareAndSwap(statePending, stateReleased) {
		return
	}
	_ = h.boundary.release(h)
}
