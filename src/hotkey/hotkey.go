package hotkey

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Windows virtual key codes, as reported by gohook rawcodes.
var specialKeys = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

var aliases = map[string]string{
	"control": "ctrl",
	"win":     "cmd",
	"super":   "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
}

// Combo tracks which keys of a hotkey combination are held down.
type Combo struct {
	spec    string
	keys    []string
	codes   [][]uint16
	mu      sync.Mutex
	pressed []bool
}

// Parse builds a combo from a string such as "Ctrl+Alt+T".
func Parse(spec string) (*Combo, error) {
	keys := parseHotkey(spec)
	c := &Combo{spec: spec}
	for _, k := range keys {
		codes := keyNameToRawcodes(k)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", spec, k)
		}
		c.keys = append(c.keys, k)
		c.codes = append(c.codes, codes)
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("hotkey %q: no keys", spec)
	}
	c.pressed = make([]bool, len(c.keys))
	return c, nil
}

func (c *Combo) String() string { return c.spec }

// Press records a key-down and reports whether the full combination is now
// held. A completed combination resets so holding the keys fires once.
func (c *Combo) Press(rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mark(rawcode, true)
	for _, p := range c.pressed {
		if !p {
			return false
		}
	}
	for i := range c.pressed {
		c.pressed[i] = false
	}
	return true
}

// Release records a key-up.
func (c *Combo) Release(rawcode uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mark(rawcode, false)
}

func (c *Combo) mark(rawcode uint16, down bool) {
	for i, codes := range c.codes {
		for _, code := range codes {
			if code == rawcode {
				c.pressed[i] = down
			}
		}
	}
}

// Listen runs the global keyboard hook until ctx is done, invoking callback
// each time the combination is completed. callback runs on the hook goroutine.
func Listen(ctx context.Context, combo *Combo, callback func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		defer gohook.End()
		log.Printf("Hotkey listener configured for: %s", combo)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("Event channel closed")
					return
				}
				switch ev.Kind {
				case gohook.KeyDown:
					if combo.Press(ev.Rawcode) {
						log.Printf("Hotkey activated: %s", combo)
						if callback != nil {
							callback()
						}
					}
				case gohook.KeyUp:
					combo.Release(ev.Rawcode)
				}
			}
		}
	}()
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if alias, ok := aliases[part]; ok {
			part = alias
		}
		keys = append(keys, part)
	}
	return keys
}

// keyNameToRawcodes maps a key name to its virtual key codes. Modifiers map to
// both their left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := aliases[keyName]; ok {
		keyName = alias
	}
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		ch := keyName[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48}
		}
	}

	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}

	return nil
}
