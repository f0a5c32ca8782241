package engine

import (
	"github.com/sirupsen/logrus"
)

type EventKind int

const (
	EventState EventKind = iota
	EventTableStart
	EventProgress
	EventTableDone
	EventTableSkipped
	EventTableFailed
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventTableStart:
		return "table-start"
	case EventProgress:
		return "progress"
	case EventTableDone:
		return "table-done"
	case EventTableSkipped:
		return "table-skipped"
	case EventTableFailed:
		return "table-failed"
	default:
		return "unknown"
	}
}

// Event reports a state transition or per-table progress.
type Event struct {
	Kind      EventKind
	Table     string
	Processed int64
	Total     int64
	Percent   float64
	State     State
	Err       error
}

// ProgressSink receives events from a run. Calls come from the goroutine
// that called Run.
type ProgressSink interface {
	Progress(Event)
}

type NopSink struct{}

func (NopSink) Progress(Event) {}

// LogSink writes events through logrus.
type LogSink struct {
	Log *logrus.Entry
}

func NewLogSink() *LogSink {
	return &LogSink{Log: logrus.WithField("component", "progress")}
}

func (s *LogSink) Progress(e Event) {
	log := s.Log
	if e.Table != "" {
		log = log.WithField("table", e.Table)
	}
	switch e.Kind {
	case EventState:
		log.Infof("State: %s", e.State)
	case EventTableStart:
		log.Infof("Migrating %d rows", e.Total)
	case EventProgress:
		log.Debugf("%d/%d rows (%.1f%%)", e.Processed, e.Total, e.Percent)
	case EventTableDone:
		log.Infof("Done: %d/%d rows", e.Processed, e.Total)
	case EventTableSkipped:
		log.Infof("Skipped data (%d source rows)", e.Total)
	case EventTableFailed:
		log.WithError(e.Err).Error("Table failed")
	}
}

func percent(processed, total int64) float64 {
	if total <= 0 {
		return 100
	}
	p := float64(processed) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return p
}
