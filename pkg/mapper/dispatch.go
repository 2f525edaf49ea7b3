package mapper

import (
	"time"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

// keyOp is one planned actuator call. Ops are built while the engine lock is
// held and executed after it is released, so a slow or failing actuator can
// never block the timer or the poll loop on the mutex.
type keyOp struct {
	kind  opKind
	keys  []string
	pause time.Duration
}

type opKind uint8

const (
	opPress opKind = iota
	opRelease
	opTap
	opSleep
)

func (k opKind) String() string {
	switch k {
	case opPress:
		return "press"
	case opRelease:
		return "release"
	case opTap:
		return "tap"
	default:
		return "sleep"
	}
}

// exec runs a planned op list against the actuator. Failures are logged and
// absorbed; the bookkeeping already reflects intended state.
func (m *Mapper) exec(ops []keyOp) {
	for _, op := range ops {
		var err error
		switch op.kind {
		case opPress:
			err = m.act.Press(op.keys[0])
		case opRelease:
			err = m.act.Release(op.keys[0])
		case opTap:
			err = m.act.Tap(op.keys...)
		case opSleep:
			time.Sleep(op.pause)
			continue
		}
		if err != nil {
			m.log.WithError(err).Warnf("key %s failed: %v", op.kind, op.keys)
		}
	}
}

// initialOpsLocked plans the first execution of an action: keys go down and
// stay tracked until released. In single tapping mode everything degrades to
// a quick tap instead.
func (m *Mapper) initialOpsLocked(action profile.Action) []keyOp {
	if m.tapEnabled {
		return m.tapOps(action)
	}
	switch action.Type {
	case profile.ActionSingle:
		m.pressed[action.Key()] = struct{}{}
		return []keyOp{{kind: opPress, keys: []string{action.Key()}}}
	case profile.ActionCombo:
		ops := make([]keyOp, 0, len(action.Keys))
		for _, key := range action.Keys {
			m.pressed[key] = struct{}{}
			ops = append(ops, keyOp{kind: opPress, keys: []string{key}})
		}
		return ops
	case profile.ActionSequence:
		return m.sequenceOps(action)
	}
	return nil
}

// repeatOpsLocked plans one repeat firing. Held keys are released and
// re-pressed to force a fresh edge, which is what retriggers OS-level key
// handling in the target application.
func (m *Mapper) repeatOpsLocked(action profile.Action) []keyOp {
	if m.tapEnabled {
		return m.tapOps(action)
	}
	switch action.Type {
	case profile.ActionSingle:
		key := action.Key()
		return []keyOp{
			{kind: opRelease, keys: []string{key}},
			{kind: opPress, keys: []string{key}},
		}
	case profile.ActionCombo:
		ops := make([]keyOp, 0, 2*len(action.Keys))
		for _, key := range action.Keys {
			ops = append(ops, keyOp{kind: opRelease, keys: []string{key}})
		}
		for _, key := range action.Keys {
			ops = append(ops, keyOp{kind: opPress, keys: []string{key}})
		}
		return ops
	case profile.ActionSequence:
		return m.sequenceOps(action)
	}
	return nil
}

// tapOps plans the single-tapping rendition of an action: a quick
// press-and-release with no hold tracking.
func (m *Mapper) tapOps(action profile.Action) []keyOp {
	switch action.Type {
	case profile.ActionSingle:
		return []keyOp{{kind: opTap, keys: []string{action.Key()}}}
	case profile.ActionCombo:
		return []keyOp{{kind: opTap, keys: action.Keys}}
	case profile.ActionSequence:
		return m.sequenceOps(action)
	}
	return nil
}

// sequenceOps plans a sequence action: each key tapped in order with a small
// pause in between. Sequence keys are never tracked as pressed.
func (m *Mapper) sequenceOps(action profile.Action) []keyOp {
	ops := make([]keyOp, 0, 2*len(action.Keys))
	for i, key := range action.Keys {
		ops = append(ops, keyOp{kind: opTap, keys: []string{key}})
		if i < len(action.Keys)-1 {
			ops = append(ops, keyOp{kind: opSleep, pause: m.cfg.SequenceKeyDelay})
		}
	}
	return ops
}
