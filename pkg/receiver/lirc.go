package receiver

import (
	"fmt"
	"sync"
	"time"

	"github.com/chbmuc/lirc"
	"github.com/sirupsen/logrus"
)

// LIRC consumes decoded button events from a local lircd socket instead of
// a serial microcontroller. lircd reports hold repetitions as an increasing
// repeat counter on the event, which maps onto the REPEAT sentinel.
type LIRC struct {
	socket string
	log    *logrus.Logger

	mu      sync.Mutex
	router  *lirc.Router
	running bool

	codes chan string
	stats counters
}

// DefaultLIRCSocket is where lircd usually listens.
const DefaultLIRCSocket = "/var/run/lirc/lircd"

// NewLIRC creates a source reading from the given lircd socket.
func NewLIRC(socket string, log *logrus.Logger) *LIRC {
	if socket == "" {
		socket = DefaultLIRCSocket
	}
	if log == nil {
		log = logrus.New()
	}
	return &LIRC{
		socket: socket,
		log:    log,
		codes:  make(chan string, queueDepth),
	}
}

// Start connects to lircd and subscribes to all remotes and buttons.
func (l *LIRC) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}
	router, err := lirc.Init(l.socket)
	if err != nil {
		return fmt.Errorf("failed to connect to lircd at %s: %w", l.socket, err)
	}
	router.Handle("", "", l.handle)
	l.router = router
	l.running = true
	go router.Run()
	l.log.Debugf("lirc receiver started on %s", l.socket)
	return nil
}

// Stop detaches from the event stream. The lirc router keeps its socket
// goroutine; events arriving afterwards are discarded by the handler.
func (l *LIRC) Stop() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

func (l *LIRC) handle(event lirc.Event) {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if !running {
		return
	}
	token := fmt.Sprintf("%X", event.Code)
	if event.Repeat > 0 {
		token = TokenRepeat
	}
	select {
	case l.codes <- token:
		l.stats.received(token == TokenRepeat)
	default:
		l.stats.dropped()
	}
}

// GetCode returns the next token from the queue.
func (l *LIRC) GetCode(timeout time.Duration) (string, bool) {
	return pull(l.codes, timeout)
}

// Connected reports whether the source is subscribed to lircd.
func (l *LIRC) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stats returns delivery counters.
func (l *LIRC) Stats() Stats {
	return l.stats.snapshot()
}
