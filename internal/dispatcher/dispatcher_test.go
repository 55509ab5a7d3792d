package dispatcher

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// captureLogger records messages so tests can assert on log output.
type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+msg)
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func (l *captureLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func (l *captureLogger) hasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if strings.HasPrefix(msg, level) {
			return true
		}
	}
	return false
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *captureLogger) {
	t.Helper()
	logger := &captureLogger{}
	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	return d, logger
}

func TestSyncHandlerReturnsResult(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var gotArgs []string
	d.Register(":SEEK:", func(e Event) (any, error) {
		gotArgs = e.Args
		return "window moved", nil
	})

	result, err := d.Dispatch(Event{Command: ":SEEK:", Args: []string{"2024-06-01"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "window moved" {
		t.Errorf("expected handler result, got %v", result)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "2024-06-01" {
		t.Errorf("handler did not receive args: %v", gotArgs)
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if _, err := d.Dispatch(Event{Command: ":REWIND:"}); err == nil {
		t.Error("expected error for unregistered command")
	}
}

func TestBufferedHandlerProcessesAsync(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register(":IMPORT:", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: ":IMPORT:"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "queued" {
			t.Errorf("expected 'queued', got %v", result)
		}
	}

	wg.Wait()
	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
}

func TestBufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	// stall the handler so the queue fills
	block := make(chan struct{})
	d.Register(":FETCH:", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(2))

	d.Dispatch(Event{Command: ":FETCH:"})
	d.Dispatch(Event{Command: ":FETCH:"})
	d.Dispatch(Event{Command: ":FETCH:"})

	if _, err := d.Dispatch(Event{Command: ":FETCH:"}); err == nil {
		t.Error("expected error when queue is full")
	}

	close(block)
}

func TestBufferedBlockingWaitsInsteadOfDropping(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	d.Register(":IMPORT:", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: ":IMPORT:"}) // being processed
	d.Dispatch(Event{Command: ":IMPORT:"}) // queued

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: ":IMPORT:"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked on the full queue")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
}

func TestLoggedHandlerWritesDebugLines(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":PLAY:", func(e Event) (any, error) {
		return "playback running", nil
	}, Logged())

	d.Dispatch(Event{Command: ":PLAY:"})

	if logger.count() < 2 {
		t.Errorf("expected start and complete log lines, got %d", logger.count())
	}
}

func TestLoggedHandlerReportsError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":PLAY:", func(e Event) (any, error) {
		return nil, errors.New("catalog is empty")
	}, Logged())

	if _, err := d.Dispatch(Event{Command: ":PLAY:"}); err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if !logger.hasLevel("ERROR") {
		t.Error("expected an error log line")
	}
}

func TestHasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":STATUS:", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler(":STATUS:") {
		t.Error("expected :STATUS: to be registered")
	}
	if d.HasHandler(":REWIND:") {
		t.Error("did not expect :REWIND: to be registered")
	}
}

func TestCommandsSorted(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":STOP:", func(e Event) (any, error) { return nil, nil })
	d.Register(":PLAY:", func(e Event) (any, error) { return nil, nil })

	cmds := d.Commands()
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0] != ":PLAY:" || cmds[1] != ":STOP:" {
		t.Errorf("expected sorted commands, got %v", cmds)
	}
}

func TestBufferedAndLoggedCompose(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var wg sync.WaitGroup
	wg.Add(1)

	d.Register(":IMPORT:", func(e Event) (any, error) {
		wg.Done()
		return "imported", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: ":IMPORT:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "queued" {
		t.Errorf("expected 'queued' from the buffered wrapper, got %v", result)
	}

	wg.Wait()
	if logger.count() < 2 {
		t.Errorf("expected log lines from the logged wrapper, got %d", logger.count())
	}
}
