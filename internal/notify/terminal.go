package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/abatilo/tock/internal/reminder"
)

//nolint:gochecknoglobals // Color palette shared by the terminal sink
var (
	bellTitle = color.New(color.Bold, color.FgYellow).SprintFunc()
	bellTime  = color.New(color.Faint).SprintFunc()
)

// Terminal prints reminders to a writer. It needs no permission.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Supported() bool { return true }

func (t *Terminal) QueryPermission(context.Context) (reminder.Permission, error) {
	return reminder.PermissionGranted, nil
}

func (t *Terminal) RequestPermission(context.Context) (reminder.Permission, error) {
	return reminder.PermissionGranted, nil
}

func (t *Terminal) Dispatch(_ context.Context, n reminder.Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "%s %s %s\n",
		bellTitle("🔔 "+n.Title+":"), n.Body, bellTime("("+n.At.Local().Format("15:04")+")"))
	return err
}
