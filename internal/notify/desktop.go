// Package notify provides the reminder sinks: native desktop notifications,
// colored terminal output, and a tag-based dedup wrapper.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/abatilo/tock/internal/reminder"
)

const appName = "tock"

// PermissionStore persists the user's notification decision.
type PermissionStore interface {
	LoadPermission() (string, error)
	SavePermission(permission string) error
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Desktop shows notifications through the host's notification daemon
// (notify-send on Linux and the BSDs, osascript on macOS).
type Desktop struct {
	store    PermissionStore
	prompter Prompter
	logger   *log.Logger
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewDesktop creates a Desktop sink. prompter may be nil, in which case an
// undecided permission is refused without persisting the answer.
func NewDesktop(store PermissionStore, prompter Prompter, logger *log.Logger) *Desktop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Desktop{
		store:    store,
		prompter: prompter,
		logger:   logger,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Desktop) binary() string {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send"
	case "darwin":
		return "osascript"
	default:
		return ""
	}
}

func (d *Desktop) Supported() bool {
	bin := d.binary()
	if bin == "" {
		return false
	}
	_, err := d.lookPath(bin)
	return err == nil
}

func (d *Desktop) QueryPermission(context.Context) (reminder.Permission, error) {
	if d.store == nil {
		return reminder.PermissionDefault, nil
	}
	stored, err := d.store.LoadPermission()
	if err != nil {
		return reminder.PermissionDefault, err
	}
	return reminder.ParsePermission(stored), nil
}

func (d *Desktop) RequestPermission(ctx context.Context) (reminder.Permission, error) {
	if d.prompter == nil {
		return reminder.PermissionDenied, nil
	}
	ok, err := d.prompter.Confirm(ctx, "Allow tock to show desktop notifications for task reminders?")
	if err != nil {
		return reminder.PermissionDefault, err
	}

	perm := reminder.PermissionDenied
	if ok {
		perm = reminder.PermissionGranted
	}
	if d.store != nil {
		if err := d.store.SavePermission(string(perm)); err != nil {
			d.logger.Printf("warning: %v", err)
		}
	}
	return perm, nil
}

func (d *Desktop) Dispatch(ctx context.Context, n reminder.Notification) error {
	bin := d.binary()
	if bin == "" {
		return fmt.Errorf("no notification command for %s", d.goos)
	}
	return d.run(ctx, bin, d.args(n)...)
}

func (d *Desktop) args(n reminder.Notification) []string {
	if d.binary() == "osascript" {
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(n.Body), appleScriptString(n.Title))
		return []string{"-e", script}
	}
	return []string{
		"--app-name=" + appName,
		// Notifications with the same tag replace each other in the daemon.
		"--hint=string:x-canonical-private-synchronous:" + n.Tag,
		n.Title,
		n.Body,
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
