package log

// MaxLogFrameDataSize is the largest payload copied into a FrameEvent.
// Larger transfers (trace dumps, screenshots) are truncated.
const MaxLogFrameDataSize = 4096

// NewFrameEvent returns a FrameEvent for data, copying at most
// MaxLogFrameDataSize bytes.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	n := len(data)
	if n > MaxLogFrameDataSize {
		n = MaxLogFrameDataSize
		fe.Truncated = true
	}
	fe.Data = make([]byte, n)
	copy(fe.Data, data[:n])
	return fe
}
