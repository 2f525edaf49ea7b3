package profile

// DefaultProfile returns the built-in Vizio TV remote profile. It is created
// on first run when no profile exists yet and doubles as a reference for the
// file format.
func DefaultProfile() *Profile {
	return &Profile{
		Name:        "Default Vizio Remote",
		Brand:       "Vizio",
		Model:       "Generic TV Remote",
		Description: "Default configuration for Vizio TV remote",
		Mappings: map[string]Action{
			"0x8":  {Type: ActionCombo, Keys: []string{"ctrl", "a"}, Description: "Power button"},
			"0x2F": {Type: ActionCombo, Keys: []string{"ctrl", "a"}, Description: "Input button"},
			"0xEA": {Type: ActionSequence, Keys: []string{"windows", "a"}, Description: "Amazon button"},
			"0xEB": {Type: ActionCombo, Keys: []string{"n"}, Description: "Netflix button"},
			"0xEE": {Type: ActionCombo, Keys: []string{"i"}, Description: "iHeart button"},
			"0x35": {Type: ActionCombo, Keys: []string{"ctrl", "backspace"}, Description: "Rewind"},
			"0x37": {Type: ActionCombo, Keys: []string{"ctrl", "a"}, Description: "Pause"},
			"0x33": {Type: ActionCombo, Keys: []string{"ctrl", "a"}, Description: "Play"},
			"0x36": {Type: ActionCombo, Keys: []string{"ctrl", "a"}, Description: "Fast Forward"},
			"0x30": {Type: ActionSpecial, Keys: []string{ControlStop}, Description: "Stop controller"},
			"0x45": {Type: ActionCombo, Keys: []string{"ctrl", "up"}, Description: "Up arrow"},
			"0x46": {Type: ActionCombo, Keys: []string{"ctrl", "down"}, Description: "Down arrow"},
			"0x47": {Type: ActionCombo, Keys: []string{"ctrl", "left"}, Description: "Left arrow"},
			"0x48": {Type: ActionCombo, Keys: []string{"ctrl", "right"}, Description: "Right arrow"},
			"0x44": {Type: ActionCombo, Keys: []string{"ctrl", "enter"}, Description: "Select/OK"},
			"0x2":  {Type: ActionCombo, Keys: []string{"volume up"}, Description: "Volume Up"},
			"0x3":  {Type: ActionCombo, Keys: []string{"volume down"}, Description: "Volume Down"},
			"0x2D": {Type: ActionCombo, Keys: []string{"ctrl", "home"}, Description: "Home"},
			"0x0":  {Type: ActionCombo, Keys: []string{"ctrl", "page up"}, Description: "Channel Up"},
			"0x1":  {Type: ActionCombo, Keys: []string{"ctrl", "page down"}, Description: "Channel Down"},
			"0x9":  {Type: ActionCombo, Keys: []string{"ctrl", "f"}, Description: "Mute"},
			"0x11": {Type: ActionSingle, Keys: []string{"1"}, Description: "Number 1"},
			"0x12": {Type: ActionSingle, Keys: []string{"2"}, Description: "Number 2"},
			"0x13": {Type: ActionSingle, Keys: []string{"3"}, Description: "Number 3"},
			"0x14": {Type: ActionSingle, Keys: []string{"4"}, Description: "Number 4"},
			"0x15": {Type: ActionSingle, Keys: []string{"5"}, Description: "Number 5"},
			"0x16": {Type: ActionSingle, Keys: []string{"6"}, Description: "Number 6"},
			"0x17": {Type: ActionSingle, Keys: []string{"7"}, Description: "Number 7"},
			"0x18": {Type: ActionSingle, Keys: []string{"8"}, Description: "Number 8"},
			"0x19": {Type: ActionSingle, Keys: []string{"9"}, Description: "Number 9"},
			"0x10": {Type: ActionSingle, Keys: []string{"0"}, Description: "Number 0"},
			"0x3A": {Type: ActionSingle, Keys: []string{"enter"}, Description: "Enter"},
			"0x1A": {Type: ActionSpecial, Keys: []string{ControlToggleTap}, Description: "Toggle single tap mode"},
			"0xFF": {Type: ActionSpecial, Keys: []string{ControlToggleGhost}, Description: "Toggle ghost key"},
		},
	}
}
