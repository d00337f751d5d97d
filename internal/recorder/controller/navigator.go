package controller

import (
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/logging"
)

// Transport is the playback surface a Navigator drives
type Transport interface {
	Seek(targetMs int64) error
	Play() error
}

// Navigator jumps playback to time-anchored transcript segments
type Navigator struct {
	transport Transport
	logger    *logging.Logger
}

// NewNavigator creates a Navigator
func NewNavigator(transport Transport, logger *logging.Logger) *Navigator {
	if logger == nil {
		logger = logging.New("navigator")
	}
	return &Navigator{transport: transport, logger: logger}
}

// JumpTo seeks to the segment start and plays. Segments without a start
// time are ignored. Failures are logged, never returned.
func (n *Navigator) JumpTo(seg transcribe.Segment) {
	if !seg.HasStart {
		return
	}

	if err := n.transport.Seek(seg.StartMs); err != nil {
		n.logger.Warn("Jump seek failed", "start_ms", seg.StartMs, "error", err)
		return
	}
	if err := n.transport.Play(); err != nil {
		n.logger.Warn("Jump play failed", "start_ms", seg.StartMs, "error", err)
	}
}

// JumpToIndex jumps to the i-th segment of result. It reports whether a
// jump was attempted.
func (n *Navigator) JumpToIndex(result *transcribe.Result, i int) bool {
	segments := result.Segments()
	if i < 0 || i >= len(segments) || !segments[i].HasStart {
		return false
	}
	n.JumpTo(segments[i])
	return true
}
