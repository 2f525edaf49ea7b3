package mapper

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

// fakeActuator records every key operation in order.
type fakeActuator struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (f *fakeActuator) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.fail {
		return errors.New("injection failed")
	}
	return nil
}

func (f *fakeActuator) Press(key string) error   { return f.record("press:" + key) }
func (f *fakeActuator) Release(key string) error { return f.record("release:" + key) }
func (f *fakeActuator) Tap(keys ...string) error { return f.record("tap:" + strings.Join(keys, "+")) }

func (f *fakeActuator) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeActuator) count(prefix string) int {
	n := 0
	for _, c := range f.snapshot() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testMapper builds a mapper with a fake actuator and a manually advanced
// clock. The release timeout is huge so the auto-release timer stays out of
// clock-driven tests.
func testMapper(t *testing.T, cfg Config) (*Mapper, *fakeActuator, func(time.Duration)) {
	t.Helper()
	act := &fakeActuator{}
	m := New(act, cfg, quietLogger())

	var mu sync.Mutex
	current := time.Now()
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}
	t.Cleanup(m.Cleanup)
	return m, act, advance
}

func frozenConfig() Config {
	cfg := DefaultConfig()
	cfg.ReleaseTimeout = time.Hour
	return cfg
}

func singleMapping(code, key string) map[string]profile.Action {
	return map[string]profile.Action{
		code: {Type: profile.ActionSingle, Keys: []string{key}, Description: strings.ToUpper(key)},
	}
}

func TestProcessCode(t *testing.T) {
	t.Run("RoundTripMapping", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(singleMapping("0x1", "a"))

		assert.True(t, m.ProcessCode("0x1"))
		assert.Equal(t, []string{"press:a"}, act.snapshot())

		// Same code again inside the bounce window is noise.
		assert.False(t, m.ProcessCode("0x1"))
		assert.Equal(t, []string{"press:a"}, act.snapshot())
	})

	t.Run("UnmappedCode", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(singleMapping("0x1", "a"))

		assert.False(t, m.ProcessCode("0xBEEF"))
		assert.Empty(t, act.snapshot())
	})

	t.Run("CodeNormalization", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(singleMapping("0x2F", "b"))

		assert.True(t, m.ProcessCode("2f"))
		assert.Equal(t, []string{"press:b"}, act.snapshot())
	})

	t.Run("DisabledEngine", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(singleMapping("0x1", "a"))
		m.Disable()

		assert.False(t, m.ProcessCode("0x1"))
		assert.Empty(t, act.snapshot())
	})

	t.Run("SamePressAfterTimeoutIsNew", func(t *testing.T) {
		cfg := frozenConfig()
		cfg.ReleaseTimeout = 100 * time.Millisecond
		m, act, advance := testMapper(t, cfg)
		m.SetMappings(singleMapping("0x1", "a"))

		require.True(t, m.ProcessCode("0x1"))
		advance(150 * time.Millisecond)
		assert.True(t, m.ProcessCode("0x1"))
		// Two presses; the second is a new press of the same button.
		assert.Equal(t, 2, act.count("press:a"))
	})
}

func TestNewButtonExclusivity(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	m.SetMappings(map[string]profile.Action{
		"0xA": {Type: profile.ActionSingle, Keys: []string{"a"}},
		"0xB": {Type: profile.ActionSingle, Keys: []string{"b"}},
	})

	require.True(t, m.ProcessCode("0xA"))
	require.True(t, m.ProcessCode("0xB"))

	assert.Equal(t, []string{"press:a", "release:a", "press:b"}, act.snapshot())
}

func TestComboEndToEnd(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	m.SetMappings(map[string]profile.Action{
		"0x2": {Type: profile.ActionCombo, Keys: []string{"ctrl", "c"}, Description: "Copy"},
	})

	require.True(t, m.ProcessCode("0x2"))
	assert.Equal(t, []string{"press:ctrl", "press:c"}, act.snapshot())

	m.Cleanup()
	assert.Equal(t, 1, act.count("release:ctrl"))
	assert.Equal(t, 1, act.count("release:c"))

	// Cleanup is idempotent; a second call releases nothing further.
	m.Cleanup()
	assert.Equal(t, 1, act.count("release:ctrl"))
}

func TestSequence(t *testing.T) {
	cfg := frozenConfig()
	cfg.SequenceKeyDelay = 0
	m, act, _ := testMapper(t, cfg)
	m.SetMappings(map[string]profile.Action{
		"0x3": {Type: profile.ActionSequence, Keys: []string{"a", "b"}, Description: "Seq"},
	})

	require.True(t, m.ProcessCode("0x3"))
	assert.Equal(t, []string{"tap:a", "tap:b"}, act.snapshot())

	// Sequence keys are never tracked, so cleanup releases nothing.
	m.Cleanup()
	assert.Equal(t, 0, act.count("release:"))
}

func TestRepeatTiming(t *testing.T) {
	cfg := frozenConfig()
	cfg.InitialRepeatDelay = 300 * time.Millisecond
	cfg.RepeatRate = 9 * time.Millisecond
	m, act, advance := testMapper(t, cfg)
	m.SetMappings(singleMapping("0x1", "a"))

	require.True(t, m.ProcessCode("0x1"))

	// REPEAT every 50ms for one second. The first REPEAT at t=50ms only
	// starts the delay window, so firing begins once 300ms have elapsed
	// from it, at t=350ms.
	repeats := 0
	fired := map[int]int{} // elapsed ms -> cumulative repeat firings
	for elapsed := 50; elapsed <= 1000; elapsed += 50 {
		advance(50 * time.Millisecond)
		require.True(t, m.ProcessCode(RepeatToken))
		repeats++
		fired[elapsed] = act.count("release:a")
	}

	assert.Zero(t, fired[300], "no repeat action before the initial delay has passed")
	assert.Equal(t, 1, fired[350], "first firing once the delay elapsed")
	// Thereafter one firing per REPEAT, since 50ms spacing beats the 9ms
	// rate floor: 1 at t=350 plus 13 more through t=1000.
	assert.Equal(t, 14, fired[1000])
	assert.LessOrEqual(t, fired[1000], repeats, "never more firings than REPEAT signals")

	// Each firing is a release+press pair and the key ends held down.
	assert.Equal(t, act.count("release:a")+1, act.count("press:a"))
}

func TestRepeatRateLimiting(t *testing.T) {
	cfg := frozenConfig()
	cfg.InitialRepeatDelay = 10 * time.Millisecond
	cfg.RepeatRate = 100 * time.Millisecond
	m, act, advance := testMapper(t, cfg)
	m.SetMappings(singleMapping("0x1", "a"))

	require.True(t, m.ProcessCode("0x1"))
	advance(time.Millisecond)
	require.True(t, m.ProcessCode(RepeatToken)) // arms the delay window
	advance(20 * time.Millisecond)
	require.True(t, m.ProcessCode(RepeatToken)) // delay elapsed: fires
	require.Equal(t, 1, act.count("release:a"))

	// Repeats faster than the rate floor do not fire.
	for i := 0; i < 5; i++ {
		advance(10 * time.Millisecond)
		require.True(t, m.ProcessCode(RepeatToken))
	}
	assert.Equal(t, 1, act.count("release:a"))

	advance(60 * time.Millisecond) // now past 100ms since the last firing
	require.True(t, m.ProcessCode(RepeatToken))
	assert.Equal(t, 2, act.count("release:a"))
}

func TestRepeatWithoutPress(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	m.SetMappings(singleMapping("0x1", "a"))

	assert.False(t, m.ProcessCode(RepeatToken))
	assert.Empty(t, act.snapshot())
}

func TestRepeatDisabledKeepsHoldAlive(t *testing.T) {
	cfg := frozenConfig()
	cfg.InitialRepeatDelay = 0
	m, act, advance := testMapper(t, cfg)
	m.SetMappings(singleMapping("0x1", "a"))
	m.SetRepeatEnabled(false)

	require.True(t, m.ProcessCode("0x1"))
	for i := 0; i < 10; i++ {
		advance(50 * time.Millisecond)
		// Still handled: the REPEAT is a keep-alive even with repeats off.
		require.True(t, m.ProcessCode(RepeatToken))
	}
	assert.Equal(t, []string{"press:a"}, act.snapshot())
}

func TestAutoRelease(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReleaseTimeout = 40 * time.Millisecond
	act := &fakeActuator{}
	m := New(act, cfg, quietLogger())
	t.Cleanup(m.Cleanup)
	m.SetMappings(singleMapping("0x1", "a"))

	require.True(t, m.ProcessCode("0x1"))
	require.Eventually(t, func() bool {
		return act.count("release:a") == 1
	}, time.Second, 5*time.Millisecond, "key released after the signal timeout")

	// The hold is fully reset: a REPEAT now has nothing to continue.
	assert.False(t, m.ProcessCode(RepeatToken))
	assert.Equal(t, 1, act.count("release:a"), "released exactly once")
}

func TestSpecialActions(t *testing.T) {
	specials := func() map[string]profile.Action {
		return map[string]profile.Action{
			"0x30": {Type: profile.ActionSpecial, Keys: []string{profile.ControlStop}},
			"0x1A": {Type: profile.ActionSpecial, Keys: []string{profile.ControlToggleTap}},
			"0xFF": {Type: profile.ActionSpecial, Keys: []string{profile.ControlToggleGhost}},
			"0xFE": {Type: profile.ActionSpecial, Keys: []string{profile.ControlToggleRepeat}},
			"0xFD": {Type: profile.ActionSpecial, Keys: []string{"warp_drive"}},
		}
	}

	t.Run("NeverTouchKeys", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(specials())
		m.SetCallbacks(func() {}, nil)

		for _, code := range []string{"0x30", "0x1A", "0xFF", "0xFE"} {
			m.ProcessCode(code)
		}
		assert.Empty(t, act.snapshot())
	})

	t.Run("Toggles", func(t *testing.T) {
		m, _, _ := testMapper(t, frozenConfig())
		m.SetMappings(specials())

		assert.True(t, m.ProcessCode("0x1A"))
		assert.True(t, m.ProcessCode("0xFF"))
		assert.True(t, m.ProcessCode("0xFE"))
		ghost, tap, repeat := m.Modes()
		assert.True(t, ghost)
		assert.True(t, tap)
		assert.False(t, repeat)

		assert.True(t, m.ProcessCode("0x1A"))
		_, tap, _ = m.Modes()
		assert.False(t, tap)
	})

	t.Run("StopCallback", func(t *testing.T) {
		m, _, _ := testMapper(t, frozenConfig())
		m.SetMappings(specials())

		// No callback registered: not handled.
		assert.False(t, m.ProcessCode("0x30"))

		stopped := false
		m.SetCallbacks(func() { stopped = true }, nil)
		assert.True(t, m.ProcessCode("0x30"))
		assert.True(t, stopped)
	})

	t.Run("UnknownControl", func(t *testing.T) {
		m, act, _ := testMapper(t, frozenConfig())
		m.SetMappings(specials())

		assert.False(t, m.ProcessCode("0xFD"))
		assert.Empty(t, act.snapshot())
	})
}

func TestSingleTapMode(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	m.SetMappings(map[string]profile.Action{
		"0x1": {Type: profile.ActionSingle, Keys: []string{"a"}},
		"0x2": {Type: profile.ActionCombo, Keys: []string{"ctrl", "c"}},
	})
	m.SetSingleTapEnabled(true)

	require.True(t, m.ProcessCode("0x1"))
	require.True(t, m.ProcessCode("0x2"))
	assert.Equal(t, []string{"tap:a", "tap:ctrl+c"}, act.snapshot())

	// Nothing is held in tap mode, so cleanup releases nothing.
	m.Cleanup()
	assert.Equal(t, 0, act.count("release:"))
}

func TestGhostKey(t *testing.T) {
	cfg := frozenConfig()
	cfg.GhostKey = "f10"
	m, act, _ := testMapper(t, cfg)
	m.SetMappings(singleMapping("0x1", "a"))
	m.SetGhostEnabled(true)

	require.True(t, m.ProcessCode("0x1"))
	assert.Equal(t, []string{"press:a", "tap:f10"}, act.snapshot())
}

func TestNoStuckKeys(t *testing.T) {
	cfg := frozenConfig()
	cfg.SequenceKeyDelay = 0
	cfg.InitialRepeatDelay = 0
	m, act, advance := testMapper(t, cfg)
	m.SetMappings(map[string]profile.Action{
		"0x1": {Type: profile.ActionSingle, Keys: []string{"a"}},
		"0x2": {Type: profile.ActionCombo, Keys: []string{"ctrl", "x"}},
		"0x3": {Type: profile.ActionSequence, Keys: []string{"q", "w"}},
	})

	tokens := []string{"0x1", RepeatToken, "0x2", RepeatToken, RepeatToken, "0x3", "0x1", RepeatToken, "0x2"}
	for _, tok := range tokens {
		advance(30 * time.Millisecond)
		m.ProcessCode(tok)
	}
	m.Cleanup()

	down := map[string]int{}
	for _, call := range act.snapshot() {
		op, key, _ := strings.Cut(call, ":")
		switch op {
		case "press":
			down[key]++
		case "release":
			down[key]--
		}
	}
	for key, n := range down {
		assert.Zerof(t, n, "key %s left with press/release imbalance", key)
	}
}

func TestActuatorFailuresAreAbsorbed(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	act.fail = true
	m.SetMappings(map[string]profile.Action{
		"0x2": {Type: profile.ActionCombo, Keys: []string{"ctrl", "c"}},
	})

	// Failures must not panic and must not stop the bookkeeping: cleanup
	// still attempts to release both keys.
	require.True(t, m.ProcessCode("0x2"))
	m.Cleanup()
	assert.Equal(t, 1, act.count("release:ctrl"))
	assert.Equal(t, 1, act.count("release:c"))
}

func TestSetMappingsNormalizesCodes(t *testing.T) {
	m, act, _ := testMapper(t, frozenConfig())
	m.SetMappings(map[string]profile.Action{
		"0xab": {Type: profile.ActionSingle, Keys: []string{"z"}},
	})

	require.True(t, m.ProcessCode("AB"))
	assert.Equal(t, []string{"press:z"}, act.snapshot())
}

func TestStatusCallback(t *testing.T) {
	m, _, _ := testMapper(t, frozenConfig())
	m.SetMappings(singleMapping("0x1", "a"))

	var messages []string
	m.SetCallbacks(nil, func(msg string) { messages = append(messages, msg) })

	require.True(t, m.ProcessCode("0x1"))
	require.Len(t, messages, 1)
	assert.Equal(t, fmt.Sprintf("New press: %s", "A"), messages[0])
}
