// Package actuator provides keyboard injection backends for the mapper.
package actuator

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// Keyboard injects key events through robotgo. Key names are passed through
// untouched; whatever the profile says is handed to the OS layer as-is.
type Keyboard struct{}

// NewKeyboard returns the robotgo-backed actuator.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Press puts a key down and leaves it down.
func (k *Keyboard) Press(key string) error {
	if err := robotgo.KeyDown(key); err != nil {
		return fmt.Errorf("key down %q: %w", key, err)
	}
	return nil
}

// Release lifts a key.
func (k *Keyboard) Release(key string) error {
	if err := robotgo.KeyUp(key); err != nil {
		return fmt.Errorf("key up %q: %w", key, err)
	}
	return nil
}

// Tap presses and releases. With multiple keys the last one is the main key
// and the rest act as modifiers, so Tap("ctrl", "c") produces ctrl+c.
func (k *Keyboard) Tap(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	main := keys[len(keys)-1]
	mods := make([]interface{}, 0, len(keys)-1)
	for _, mod := range keys[:len(keys)-1] {
		mods = append(mods, mod)
	}
	if err := robotgo.KeyTap(main, mods...); err != nil {
		return fmt.Errorf("key tap %q: %w", keys, err)
	}
	return nil
}
