package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCommandBlocked is returned for commands that must not run inside a
// generated project.
var ErrCommandBlocked = errors.New("command blocked")

// blockedPrograms are never run as validation commands. Shells are excluded
// so that configured commands stay argv lists rather than scripts.
var blockedPrograms = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "dash": true,
	"rm": true, "dd": true, "mkfs": true, "sudo": true, "su": true,
	"curl": true, "wget": true, "nc": true, "ncat": true, "ssh": true, "scp": true,
	"chmod": true, "chown": true,
}

// blockedFragments are rejected anywhere in the joined command line.
var blockedFragments = []string{
	"rm -rf",
	"/dev/sd",
	"/dev/nvme",
	"$(",
	"`",
	"&&",
	"||",
	";",
	"|",
}

// CheckCommand validates an argv-style command configured for the
// implementation checks.
func CheckCommand(argv []string) error {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return fmt.Errorf("%w: empty command", ErrCommandBlocked)
	}

	prog := strings.ToLower(filepath.Base(argv[0]))
	if blockedPrograms[prog] {
		return fmt.Errorf("%w: program %q is not allowed", ErrCommandBlocked, prog)
	}

	line := strings.ToLower(strings.Join(argv, " "))
	for _, frag := range blockedFragments {
		if strings.Contains(line, frag) {
			return fmt.Errorf("%w: contains %q", ErrCommandBlocked, frag)
		}
	}
	return nil
}

// SafeEnvironment returns a reduced environment for subprocesses run inside
// workDir. Toolchain variables are passed through when set.
func SafeEnvironment(workDir string) []string {
	vars := map[string]string{
		"PATH":             os.Getenv("PATH"),
		"HOME":             workDir,
		"PWD":              workDir,
		"LANG":             "en_US.UTF-8",
		"TERM":             "dumb",
		"CI":               "true",
		"NODE_PATH":        os.Getenv("NODE_PATH"),
		"NODE_ENV":         os.Getenv("NODE_ENV"),
		"NPM_CONFIG_CACHE": os.Getenv("NPM_CONFIG_CACHE"),
	}
	if vars["PATH"] == "" {
		vars["PATH"] = "/usr/local/bin:/usr/bin:/bin"
	}

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		if v != "" {
			env = append(env, k+"="+v)
		}
	}
	return env
}
