package ui

import (
	"time"

	"github.com/msto63/meetrec/internal/recorder/controller"
)

// viewMsg carries a controller view update
type viewMsg controller.ViewState

// opDoneMsg is sent when a blocking controller operation returns
type opDoneMsg struct {
	op  string
	id  string
	err error
}

// copiedMsg is sent after the transcript was copied
type copiedMsg struct {
	err error
}

// tickMsg refreshes time-based output while recording
type tickMsg time.Time
