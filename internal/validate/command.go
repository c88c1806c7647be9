package validate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"appforge/internal/logging"
	"appforge/internal/security"
)

const maxCommandOutput = 4000

// ErrNoCommand is recorded when a configured tool is not installed.
var ErrNoCommand = errors.New("command not found")

func runCommand(ctx context.Context, r *Report, check, dir string, argv []string, timeout time.Duration) {
	r.Checked = append(r.Checked, check)

	if err := security.CheckCommand(argv); err != nil {
		r.add(check, SeverityError, "", "%s command rejected: %v", check, err)
		return
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		r.add(check, SeverityInfo, "", "%s skipped: %s: %v", check, argv[0], ErrNoCommand)
		return
	}

	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = security.SafeEnvironment(dir)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logging.Debug("running validation command", "check", check, "argv", strings.Join(argv, " "))
	err := cmd.Run()

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.add(check, SeverityError, "", "%s timed out after %s", check, timeout)
	case err != nil:
		r.add(check, SeverityError, "", "%s failed: %v\n%s", check, err, tail(out.String(), maxCommandOutput))
	default:
		r.add(check, SeverityInfo, "", "%s passed", check)
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
