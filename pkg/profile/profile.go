// Package profile defines the button-to-action model for a remote control
// and the JSON persistence for named remote profiles.
package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionType identifies how an action's keys are delivered to the keyboard.
type ActionType string

const (
	// ActionSingle presses and holds one key.
	ActionSingle ActionType = "single"
	// ActionCombo presses several keys simultaneously (e.g. ctrl+c).
	ActionCombo ActionType = "combo"
	// ActionSequence taps keys one after another with a short delay.
	ActionSequence ActionType = "sequence"
	// ActionSpecial is an engine control signal, never a keyboard key.
	ActionSpecial ActionType = "special"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionSingle, ActionCombo, ActionSequence, ActionSpecial:
		return true
	}
	return false
}

// Control names carried by ActionSpecial actions.
const (
	ControlStop         = "stop"
	ControlToggleGhost  = "toggle_ghost"
	ControlToggleTap    = "toggle_tap"
	ControlToggleRepeat = "toggle_repeat"
)

// Action maps a button code to a keyboard action. Keys always holds at least
// one entry; for single and special actions exactly one.
type Action struct {
	Type        ActionType `json:"action_type" yaml:"action_type"`
	Keys        []string   `json:"keys" yaml:"keys"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Key returns the first key of the action. For single actions this is the key
// name, for special actions the control name.
func (a Action) Key() string {
	if len(a.Keys) == 0 {
		return ""
	}
	return a.Keys[0]
}

// Validate checks that the action is structurally sound.
func (a Action) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	if len(a.Keys) == 0 {
		return fmt.Errorf("%s action has no keys", a.Type)
	}
	if (a.Type == ActionSingle || a.Type == ActionSpecial) && len(a.Keys) != 1 {
		return fmt.Errorf("%s action must have exactly one key, got %d", a.Type, len(a.Keys))
	}
	for _, k := range a.Keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%s action has an empty key", a.Type)
		}
	}
	return nil
}

// actionJSON is the wire form. The keys field may be a bare string or an
// array of strings; both shapes occur in existing profile files.
type actionJSON struct {
	Type        ActionType      `json:"action_type"`
	Keys        json.RawMessage `json:"keys"`
	Description string          `json:"description,omitempty"`
}

// UnmarshalJSON accepts keys as either "a" or ["ctrl","a"].
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Type = raw.Type
	a.Description = raw.Description
	a.Keys = nil

	if len(raw.Keys) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw.Keys, &single); err == nil {
		a.Keys = []string{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.Keys, &list); err != nil {
		return fmt.Errorf("keys must be a string or an array of strings: %w", err)
	}
	a.Keys = list
	return nil
}

// MarshalJSON writes single and special actions with a bare string key,
// matching the files the original tooling produced.
func (a Action) MarshalJSON() ([]byte, error) {
	var keys any = a.Keys
	if len(a.Keys) == 1 && (a.Type == ActionSingle || a.Type == ActionSpecial) {
		keys = a.Keys[0]
	}
	return json.Marshal(struct {
		Type        ActionType `json:"action_type"`
		Keys        any        `json:"keys"`
		Description string     `json:"description,omitempty"`
	}{a.Type, keys, a.Description})
}

// Profile is a named set of button mappings for one physical remote.
// Mapping keys are canonical button codes (see NormalizeCode).
type Profile struct {
	Name        string            `json:"name" yaml:"name"`
	Brand       string            `json:"brand" yaml:"brand"`
	Model       string            `json:"model" yaml:"model"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Mappings    map[string]Action `json:"mappings" yaml:"mappings"`
}

// Validate checks every mapping in the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	for code, action := range p.Mappings {
		if NormalizeCode(code) == "" {
			return fmt.Errorf("invalid button code %q", code)
		}
		if err := action.Validate(); err != nil {
			return fmt.Errorf("mapping %q: %w", code, err)
		}
	}
	return nil
}

// Normalize rewrites all mapping keys to canonical button codes.
func (p *Profile) Normalize() {
	normalized := make(map[string]Action, len(p.Mappings))
	for code, action := range p.Mappings {
		normalized[NormalizeCode(code)] = action
	}
	p.Mappings = normalized
}

// Lookup resolves a button code against the profile, normalizing first.
func (p *Profile) Lookup(code string) (Action, bool) {
	a, ok := p.Mappings[NormalizeCode(code)]
	return a, ok
}

// NormalizeCode canonicalizes a button code token: surrounding whitespace and
// an optional 0x prefix are stripped and hex digits are uppercased, so
// "0x2f", "0X2F" and "2f" all become "2F". Returns "" for an empty token.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= 2 && (code[:2] == "0x" || code[:2] == "0X") {
		code = code[2:]
	}
	return strings.ToUpper(code)
}
