package receiver

import (
	"bufio"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const queueDepth = 64

// Serial reads newline-delimited tokens from a microcontroller over a
// serial link. A background goroutine parses lines into tokens and feeds a
// bounded queue; when the queue is full the newest token is dropped, since
// stale codes are worse than missing ones for a real-time hold.
type Serial struct {
	portName string
	baud     int
	log      *logrus.Logger

	mu      sync.Mutex
	port    serial.Port
	running bool
	done    chan struct{}

	codes chan string
	stats counters
}

// NewSerial creates a serial source for the given port and baud rate.
func NewSerial(portName string, baud int, log *logrus.Logger) *Serial {
	if log == nil {
		log = logrus.New()
	}
	return &Serial{
		portName: portName,
		baud:     baud,
		log:      log,
		codes:    make(chan string, queueDepth),
	}
}

// Start opens the port and begins receiving.
func (s *Serial) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	port, err := serial.Open(s.portName, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.portName, err)
	}
	s.port = port
	s.running = true
	s.done = make(chan struct{})
	go s.receiveLoop(port, s.done)
	s.log.Debugf("serial receiver started on %s @ %d baud", s.portName, s.baud)
	return nil
}

// Stop closes the port, which unblocks the reader, and waits for it to exit.
func (s *Serial) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	port, done := s.port, s.done
	s.port = nil
	s.mu.Unlock()

	port.Close()
	<-done
}

// receiveLoop reads lines until the port errors out or is closed.
func (s *Serial) receiveLoop(port serial.Port, done chan struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		token, ok := ParseToken(scanner.Text())
		if !ok {
			s.stats.malformed()
			continue
		}
		select {
		case s.codes <- token:
			s.stats.received(token == TokenRepeat)
		default:
			s.stats.dropped()
		}
	}
	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		stopped := !s.running
		s.running = false
		s.mu.Unlock()
		if !stopped {
			s.log.WithError(err).Error("serial read failed")
		}
	}
}

// GetCode returns the next token from the queue.
func (s *Serial) GetCode(timeout time.Duration) (string, bool) {
	return pull(s.codes, timeout)
}

// Connected reports whether the receive loop is up.
func (s *Serial) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns delivery counters.
func (s *Serial) Stats() Stats {
	return s.stats.snapshot()
}
