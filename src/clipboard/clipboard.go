package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// ErrUnavailable is returned when the system clipboard could not be initialized.
var ErrUnavailable = errors.New("clipboard unavailable")

func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	})
	return initErr
}

// WriteText performs a mutex-guarded clipboard write. The write is read back
// so a silently rejected write is reported as an error.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	if got := clipboard.Read(clipboard.FmtText); string(got) != text {
		return fmt.Errorf("clipboard did not accept %d bytes", len(text))
	}
	return nil
}

// System satisfies result.Clipboard.
type System struct{}

func (System) WriteText(text string) error { return WriteText(text) }
