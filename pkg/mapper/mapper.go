// Package mapper turns the noisy stream of button codes coming from an IR
// receiver into keyboard press/release/tap calls with standard keyboard
// repeat feel: press once, pause, then repeat at a steady rate. It also
// guarantees that no key is left held down once signals stop.
package mapper

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

// RepeatToken is the sentinel the receiver emits while a button is being
// physically held, as opposed to a duplicate button code.
const RepeatToken = "REPEAT"

// Actuator executes concrete key operations against the OS keyboard.
// Implementations must not block indefinitely; failures are logged by the
// mapper and never propagated.
type Actuator interface {
	Press(key string) error
	Release(key string) error
	// Tap presses and releases. With multiple keys they are treated as a
	// combo: pressed together, held briefly, released in reverse order.
	Tap(keys ...string) error
}

// Config holds the timing knobs of the engine. All of them are tuning
// decisions, not structure, so none are hard-coded.
type Config struct {
	// InitialRepeatDelay is how long after the first REPEAT signal the
	// continuous repeating starts, mirroring keyboard typematic delay.
	InitialRepeatDelay time.Duration
	// RepeatRate is the minimum interval between successive repeat firings.
	RepeatRate time.Duration
	// ReleaseTimeout is how long after the last signal of any kind the held
	// keys are forcibly released. It doubles as the bounce window.
	ReleaseTimeout time.Duration
	// SequenceKeyDelay is the pause between keys of a sequence action.
	SequenceKeyDelay time.Duration
	// GhostKey is the neutral key tapped after new presses when the ghost
	// key mode is on.
	GhostKey string
}

// DefaultConfig returns the stock timing configuration.
func DefaultConfig() Config {
	return Config{
		InitialRepeatDelay: 300 * time.Millisecond,
		RepeatRate:         9 * time.Millisecond,
		ReleaseTimeout:     120 * time.Millisecond,
		SequenceKeyDelay:   20 * time.Millisecond,
		GhostKey:           "f10",
	}
}

// releaseSlack compensates for timer scheduling jitter when the auto-release
// callback re-checks signal staleness.
const releaseSlack = 10 * time.Millisecond

// Mapper is the repeat/debounce engine. One instance is driven by a single
// polling goroutine via ProcessCode; the auto-release timer fires on its own
// goroutine, so all state is guarded by mu. Actuator calls happen outside
// the lock, planned as op lists while the lock is held.
type Mapper struct {
	mu  sync.Mutex
	cfg Config
	act Actuator
	log *logrus.Logger
	now func() time.Time

	enabled  bool
	mappings map[string]profile.Action

	pressed        map[string]struct{}
	lastCode       string
	lastAction     profile.Action
	haveLast       bool
	lastCodeTime   time.Time
	firstRepeat    time.Time
	haveFirstRep   bool
	repeatStarted  bool
	lastRepeatFire time.Time
	releaseTimer   *time.Timer

	ghostEnabled  bool
	tapEnabled    bool
	repeatEnabled bool

	stopCallback   func()
	statusCallback func(string)
}

// New creates an enabled mapper with no mappings loaded.
func New(act Actuator, cfg Config, log *logrus.Logger) *Mapper {
	if log == nil {
		log = logrus.New()
	}
	return &Mapper{
		cfg:           cfg,
		act:           act,
		log:           log,
		now:           time.Now,
		enabled:       true,
		mappings:      map[string]profile.Action{},
		pressed:       map[string]struct{}{},
		repeatEnabled: true,
	}
}

// SetMappings replaces the active mapping table wholesale. Codes are
// canonicalized. Callers should only swap tables while no hold is in
// progress.
func (m *Mapper) SetMappings(mappings map[string]profile.Action) {
	normalized := make(map[string]profile.Action, len(mappings))
	for code, action := range mappings {
		normalized[profile.NormalizeCode(code)] = action
	}
	m.mu.Lock()
	m.mappings = normalized
	m.mu.Unlock()
	m.log.Debugf("loaded %d mappings", len(normalized))
}

// SetProfile loads the profile's mapping table.
func (m *Mapper) SetProfile(p *profile.Profile) {
	m.SetMappings(p.Mappings)
}

// SetCallbacks registers the stop callback, fired on a "stop" special
// action, and the status callback, fired with human-readable status lines.
func (m *Mapper) SetCallbacks(stop func(), status func(string)) {
	m.mu.Lock()
	m.stopCallback = stop
	m.statusCallback = status
	m.mu.Unlock()
}

// SetGhostEnabled toggles the ghost key workaround.
func (m *Mapper) SetGhostEnabled(on bool) {
	m.mu.Lock()
	m.ghostEnabled = on
	m.mu.Unlock()
}

// SetSingleTapEnabled toggles single tapping mode, where every action runs
// as a quick tap instead of a sustained hold.
func (m *Mapper) SetSingleTapEnabled(on bool) {
	m.mu.Lock()
	m.tapEnabled = on
	m.mu.Unlock()
}

// SetRepeatEnabled toggles whether REPEAT signals fire repeat actions.
// When off they still act as hold keep-alives.
func (m *Mapper) SetRepeatEnabled(on bool) {
	m.mu.Lock()
	m.repeatEnabled = on
	m.mu.Unlock()
}

// Modes returns the current mode flags.
func (m *Mapper) Modes() (ghost, tap, repeat bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ghostEnabled, m.tapEnabled, m.repeatEnabled
}

// Disable makes all future ProcessCode calls no-ops. It does not release
// keys; call Cleanup for that.
func (m *Mapper) Disable() {
	m.mu.Lock()
	m.enabled = false
	m.mu.Unlock()
}

// ProcessCode consumes one token from the receiver: either a button code or
// the REPEAT sentinel. It returns true if the token produced or continued an
// action and false if it was ignored (disabled engine, unmapped code,
// bounce, or a REPEAT with nothing held).
func (m *Mapper) ProcessCode(token string) bool {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return false
	}
	now := m.now()

	if token == RepeatToken {
		ops, handled := m.repeatLocked(now)
		m.mu.Unlock()
		m.exec(ops)
		return handled
	}

	code := profile.NormalizeCode(token)
	action, ok := m.mappings[code]
	if !ok {
		m.mu.Unlock()
		m.log.Debugf("no mapping for code %s", code)
		return false
	}

	if action.Type == profile.ActionSpecial {
		return m.handleSpecialLocked(action)
	}

	isNewButton := !m.haveLast || code != m.lastCode
	afterTimeout := now.Sub(m.lastCodeTime) > m.cfg.ReleaseTimeout
	if !isNewButton && !afterTimeout {
		m.mu.Unlock()
		m.log.Debugf("ignoring bounce for %s", code)
		return false
	}

	var ops []keyOp
	if isNewButton && len(m.pressed) > 0 {
		// At most one button is ever held; drop the previous one first.
		ops = m.releaseAllLocked()
	}
	m.resetRepeatLocked()
	ops = append(ops, m.initialOpsLocked(action)...)
	if m.ghostEnabled && m.cfg.GhostKey != "" {
		ops = append(ops, keyOp{kind: opTap, keys: []string{m.cfg.GhostKey}})
	}

	m.lastCode = code
	m.lastAction = action
	m.haveLast = true
	m.lastCodeTime = now
	m.scheduleReleaseLocked()
	m.mu.Unlock()

	label := action.Description
	if label == "" {
		label = code
	}
	m.status("New press: " + label)
	m.exec(ops)
	return true
}

// repeatLocked handles a REPEAT sentinel. Any REPEAT proves the button is
// still physically held, so the hold is refreshed even before the repeat
// action itself starts firing.
func (m *Mapper) repeatLocked(now time.Time) ([]keyOp, bool) {
	if !m.haveLast {
		m.log.Debug("REPEAT received but no last code")
		return nil, false
	}
	m.lastCodeTime = now
	m.scheduleReleaseLocked()

	if !m.repeatEnabled {
		return nil, true
	}
	if !m.haveFirstRep {
		m.firstRepeat = now
		m.haveFirstRep = true
		return nil, true
	}
	if !m.repeatStarted {
		if now.Sub(m.firstRepeat) >= m.cfg.InitialRepeatDelay {
			m.repeatStarted = true
			m.lastRepeatFire = now
			return m.repeatOpsLocked(m.lastAction), true
		}
		return nil, true
	}
	if now.Sub(m.lastRepeatFire) >= m.cfg.RepeatRate {
		m.lastRepeatFire = now
		return m.repeatOpsLocked(m.lastAction), true
	}
	return nil, true
}

// handleSpecialLocked dispatches a special action. Special actions never
// touch key state or the hold tracking. Called with mu held, returns with it
// released so the stop callback can safely re-enter the mapper.
func (m *Mapper) handleSpecialLocked(action profile.Action) bool {
	handled := true
	var notify string
	var stop func()
	switch action.Key() {
	case profile.ControlStop:
		if m.stopCallback != nil {
			stop = m.stopCallback
			notify = "Stop requested"
		} else {
			handled = false
		}
	case profile.ControlToggleGhost:
		m.ghostEnabled = !m.ghostEnabled
		notify = "Ghost key: " + onOff(m.ghostEnabled)
	case profile.ControlToggleTap:
		m.tapEnabled = !m.tapEnabled
		notify = "Single tap: " + onOff(m.tapEnabled)
	case profile.ControlToggleRepeat:
		m.repeatEnabled = !m.repeatEnabled
		notify = "Keyboard repeat: " + onOff(m.repeatEnabled)
	default:
		handled = false
	}
	m.mu.Unlock()

	if notify != "" {
		m.status(notify)
	}
	if stop != nil {
		stop()
	}
	return handled
}

// scheduleReleaseLocked re-arms the single-slot auto-release timer.
func (m *Mapper) scheduleReleaseLocked() {
	if m.releaseTimer != nil {
		m.releaseTimer.Stop()
	}
	m.releaseTimer = time.AfterFunc(m.cfg.ReleaseTimeout, m.autoRelease)
}

// autoRelease fires on the timer goroutine when no signal arrived within
// ReleaseTimeout. A fresher signal may have been processed between the timer
// firing and the lock being acquired, so staleness is re-checked first.
func (m *Mapper) autoRelease() {
	m.mu.Lock()
	if m.now().Sub(m.lastCodeTime) < m.cfg.ReleaseTimeout-releaseSlack {
		m.mu.Unlock()
		return
	}
	ops := m.releaseAllLocked()
	m.resetRepeatLocked()
	m.mu.Unlock()

	if len(ops) > 0 {
		m.log.Debug("auto-releasing keys after signal timeout")
	}
	m.exec(ops)
}

// Cleanup cancels the pending timer, resets all repeat state and releases
// every tracked key. Safe to call repeatedly and from shutdown paths.
func (m *Mapper) Cleanup() {
	m.mu.Lock()
	if m.releaseTimer != nil {
		m.releaseTimer.Stop()
		m.releaseTimer = nil
	}
	m.resetRepeatLocked()
	ops := m.releaseAllLocked()
	m.mu.Unlock()
	m.exec(ops)
}

// resetRepeatLocked clears the hold and repeat tracking state.
func (m *Mapper) resetRepeatLocked() {
	m.firstRepeat = time.Time{}
	m.haveFirstRep = false
	m.repeatStarted = false
	m.lastRepeatFire = time.Time{}
	m.lastCode = ""
	m.lastAction = profile.Action{}
	m.haveLast = false
}

// releaseAllLocked plans a release for every tracked key and clears the
// tracking set. The set reflects intended state, so releasing a key that
// may already be up is preferred over leaving one stuck down.
func (m *Mapper) releaseAllLocked() []keyOp {
	if len(m.pressed) == 0 {
		return nil
	}
	ops := make([]keyOp, 0, len(m.pressed))
	for key := range m.pressed {
		ops = append(ops, keyOp{kind: opRelease, keys: []string{key}})
	}
	m.pressed = map[string]struct{}{}
	return ops
}

func (m *Mapper) status(msg string) {
	m.mu.Lock()
	cb := m.statusCallback
	m.mu.Unlock()
	if cb != nil {
		cb(msg)
	}
	m.log.Debug(msg)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
