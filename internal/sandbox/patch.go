package sandbox

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"appforge/internal/fileutil"
)

// PatchOp is the edit applied at an anchor line.
type PatchOp string

const (
	OpInsertAfter  PatchOp = "insert_after"
	OpInsertBefore PatchOp = "insert_before"
	OpReplace      PatchOp = "replace"
)

// ParsePatchOp rejects anything other than the three known operations.
func ParsePatchOp(s string) (PatchOp, error) {
	switch op := PatchOp(strings.TrimSpace(s)); op {
	case OpInsertAfter, OpInsertBefore, OpReplace:
		return op, nil
	default:
		return "", fmt.Errorf("%w: unknown patch operation %q", ErrInvalidArgument, s)
	}
}

// Patch locates the first line containing Anchor and applies Op there.
type Patch struct {
	Anchor  string  `json:"anchor"`
	Content string  `json:"content"`
	Op      PatchOp `json:"operation"`
}

// Validate checks the patch before any file is read.
func (p Patch) Validate() error {
	if p.Anchor == "" {
		return fmt.Errorf("%w: empty anchor", ErrInvalidArgument)
	}
	_, err := ParsePatchOp(string(p.Op))
	return err
}

// PatchResult summarizes a batch. Failures lists anchors that were not found;
// a non-empty Failures is a partial failure, not an error.
type PatchResult struct {
	Applied  int      `json:"applied"`
	Failures []string `json:"failures,omitempty"`
	Diff     string   `json:"diff,omitempty"`
}

// Partial reports whether some patches could not be applied.
func (r PatchResult) Partial() bool {
	return len(r.Failures) > 0
}

func (r PatchResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Applied %d patch(es)", r.Applied)
	if r.Partial() {
		fmt.Fprintf(&sb, ", %d failed:", len(r.Failures))
		for _, f := range r.Failures {
			sb.WriteString("\n  - ")
			sb.WriteString(f)
		}
	}
	return sb.String()
}

// ApplyPatches applies each patch in order against the evolving file text.
// A missing anchor is recorded and the batch continues. The file is written
// once, after every patch has been attempted, so earlier successes stand.
func (f *FS) ApplyPatches(p string, patches []Patch) (PatchResult, error) {
	var result PatchResult

	if len(patches) == 0 {
		return result, pathErr("apply_patch", p, fmt.Errorf("%w: no patches given", ErrInvalidArgument))
	}
	for i, patch := range patches {
		if err := patch.Validate(); err != nil {
			return result, pathErr("apply_patch", p, fmt.Errorf("patch %d: %w", i+1, err))
		}
	}

	original, err := f.Read(p)
	if err != nil {
		return result, err
	}
	abs, err := f.resolve("apply_patch", p)
	if err != nil {
		return result, err
	}

	lines := strings.Split(original, "\n")
	for i, patch := range patches {
		idx := firstLineContaining(lines, patch.Anchor)
		if idx < 0 {
			result.Failures = append(result.Failures, fmt.Sprintf("patch %d: anchor %q not found", i+1, patch.Anchor))
			continue
		}

		insert := strings.Split(patch.Content, "\n")
		switch patch.Op {
		case OpInsertAfter:
			lines = splice(lines, idx+1, idx+1, insert)
		case OpInsertBefore:
			lines = splice(lines, idx, idx, insert)
		case OpReplace:
			lines = splice(lines, idx, idx+1, insert)
		}
		result.Applied++
	}

	if result.Applied == 0 {
		return result, nil
	}

	updated := strings.Join(lines, "\n")
	perm := os.FileMode(0644)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fileutil.AtomicWriteString(abs, updated, perm); err != nil {
		return result, pathErr("apply_patch", p, err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, updated, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	result.Diff = dmp.PatchToText(dmp.PatchMake(original, diffs))

	return result, nil
}

func firstLineContaining(lines []string, anchor string) int {
	for i, line := range lines {
		if strings.Contains(line, anchor) {
			return i
		}
	}
	return -1
}

// splice replaces lines[from:to] with insert.
func splice(lines []string, from, to int, insert []string) []string {
	out := make([]string, 0, len(lines)-(to-from)+len(insert))
	out = append(out, lines[:from]...)
	out = append(out, insert...)
	out = append(out, lines[to:]...)
	return out
}
