package cmd

import (
	"fmt"
	"os"
	"sync"

	"db-move/internal/engine"

	"github.com/gosuri/uiprogress"
	"github.com/mattn/go-isatty"
)

// barSink draws one progress bar per table.
type barSink struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bars     map[string]*uiprogress.Bar
	log      engine.ProgressSink
	stopped  sync.Once
}

// newSink draws bars on a terminal and logs otherwise.
func newSink(out *os.File) (engine.ProgressSink, func()) {
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return engine.NewLogSink(), func() {}
	}
	p := uiprogress.New()
	p.Start()
	s := &barSink{progress: p, bars: make(map[string]*uiprogress.Bar), log: engine.NewLogSink()}
	return s, s.stop
}

// stop may be called more than once; uiprogress panics on a second Stop.
func (s *barSink) stop() { s.stopped.Do(s.progress.Stop) }

func (s *barSink) Progress(e engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case engine.EventTableStart:
		if e.Total <= 0 {
			return
		}
		name := e.Table
		bar := s.progress.AddBar(int(e.Total)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%-24s", truncate(name, 24))
		})
		s.bars[e.Table] = bar
	case engine.EventProgress, engine.EventTableDone:
		if bar, ok := s.bars[e.Table]; ok {
			bar.Set(int(min(e.Processed, int64(bar.Total))))
		}
	case engine.EventTableFailed, engine.EventTableSkipped:
		s.log.Progress(e)
	case engine.EventState:
		if e.State.Terminal() {
			// freeze the bars so the summary prints below them
			s.stop()
		}
	}
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "~"
	}
	return s
}
