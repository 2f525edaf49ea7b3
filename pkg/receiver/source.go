// Package receiver provides code sources: transports that deliver button
// code tokens from an IR receiver to the host. A token is either a canonical
// hex button code or the REPEAT sentinel.
package receiver

import (
	"strings"
	"sync"
	"time"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

// TokenRepeat is emitted while a remote button is physically held.
const TokenRepeat = "REPEAT"

// Source is a transport delivering code tokens in roughly real time, with
// best-effort delivery and no ordering guarantees beyond that.
type Source interface {
	// Start opens the transport and begins delivering tokens.
	Start() error
	// Stop tears the transport down. Safe to call more than once.
	Stop()
	// GetCode returns the next token, waiting at most timeout. A zero
	// timeout polls without blocking. ok is false when nothing arrived.
	GetCode(timeout time.Duration) (code string, ok bool)
	// Connected reports whether the transport is currently up.
	Connected() bool
	// Stats returns delivery counters.
	Stats() Stats
}

// Stats are cumulative delivery counters for a source.
type Stats struct {
	Received  uint64 // valid tokens delivered to the queue
	Repeats   uint64 // REPEAT sentinels among them
	Dropped   uint64 // tokens discarded because the queue was full
	Malformed uint64 // lines that parsed to no valid token
}

type counters struct {
	mu sync.Mutex
	s  Stats
}

func (c *counters) received(repeat bool) {
	c.mu.Lock()
	c.s.Received++
	if repeat {
		c.s.Repeats++
	}
	c.mu.Unlock()
}

func (c *counters) dropped()   { c.mu.Lock(); c.s.Dropped++; c.mu.Unlock() }
func (c *counters) malformed() { c.mu.Lock(); c.s.Malformed++; c.mu.Unlock() }

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// ParseToken turns one raw line from the wire into a token. Accepted forms
// are the REPEAT sentinel and hex codes with or without a 0x prefix, case
// insensitive. Anything else is malformed.
func ParseToken(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if strings.EqualFold(line, TokenRepeat) {
		return TokenRepeat, true
	}
	code := profile.NormalizeCode(line)
	if code == "" || !isHex(code) {
		return "", false
	}
	return code, true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// pull implements GetCode over a token channel.
func pull(codes <-chan string, timeout time.Duration) (string, bool) {
	if timeout <= 0 {
		select {
		case code := <-codes:
			return code, true
		default:
			return "", false
		}
	}
	select {
	case code := <-codes:
		return code, true
	case <-time.After(timeout):
		return "", false
	}
}
