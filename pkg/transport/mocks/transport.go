// Package mocks provides testify mocks of the transport interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Transport is a testify mock of transport.Transport.
type Transport struct{ mock.Mock }

// NewTransport returns a mock whose expectations are asserted at test cleanup.
func NewTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *Transport {
	m := &Transport{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Transport) Open(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *Transport) Close() error                   { return m.Called().Error(0) }
func (m *Transport) Send(msg string) error          { return m.Called(msg).Error(0) }
func (m *Transport) SendRaw(b []byte) error         { return m.Called(b).Error(0) }

func (m *Transport) Receive(max int) ([]byte, error) {
	ret := m.Called(max)
	var b []byte
	if ret.Get(0) != nil {
		b = ret.Get(0).([]byte)
	}
	return b, ret.Error(1)
}

func (m *Transport) ReadLine() (string, error) {
	ret := m.Called()
	return ret.String(0), ret.Error(1)
}

func (m *Transport) Terminator() string        { return m.Called().String(0) }
func (m *Transport) SetTerminator(term string) { m.Called(term) }

func (m *Transport) State() transport.State {
	return m.Called().Get(0).(transport.State)
}

func (m *Transport) Medium() string   { return m.Called().String(0) }
func (m *Transport) Resource() string { return m.Called().String(0) }

var _ transport.Transport = (*Transport)(nil)
