package project

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Kind names one of the canonical artifact locations of a project.
type Kind string

const (
	KindRoot             Kind = "root"
	KindRequirementsDoc  Kind = "requirements_doc"
	KindSpecDoc          Kind = "spec_doc"
	KindTemplateDir      Kind = "template_dir"
	KindUIDesignDoc      Kind = "ui_design_doc"
	KindUIOutputDir      Kind = "ui_output_dir"
	KindQAReport         Kind = "qa_report"
	KindValidationReport Kind = "validation_report"
	KindUIStructure      Kind = "ui_structure"
)

// Artifact file names inside a project root.
const (
	RequirementsFile     = "PRD.md"
	SpecFile             = "app_spec.json"
	UIDesignFile         = "ui_design.md"
	UIDir                = "ui"
	QAReportFile         = "QA_TEST_REPORT.md"
	ValidationReportFile = "VALIDATION_REPORT.md"
	UIStructureFile      = "UI_STRUCTURE.json"
)

var kinds = map[Kind]struct{}{
	KindRoot: {}, KindRequirementsDoc: {}, KindSpecDoc: {}, KindTemplateDir: {},
	KindUIDesignDoc: {}, KindUIOutputDir: {}, KindQAReport: {},
	KindValidationReport: {}, KindUIStructure: {},
}

// ParseKind validates a kind name coming from tool input.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("unknown path kind %q (valid: %v)", s, Kinds())
	}
	return k, nil
}

// Kinds lists every valid kind in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// derivePath computes a location from the project root. Nothing here is
// stored, so a project's paths can never disagree with its name.
func derivePath(root, templateDir string, kind Kind) string {
	switch kind {
	case KindRequirementsDoc:
		return filepath.Join(root, RequirementsFile)
	case KindSpecDoc:
		return filepath.Join(root, SpecFile)
	case KindTemplateDir:
		return templateDir
	case KindUIDesignDoc:
		return filepath.Join(root, UIDesignFile)
	case KindUIOutputDir:
		return filepath.Join(root, UIDir)
	case KindQAReport:
		return filepath.Join(root, QAReportFile)
	case KindValidationReport:
		return filepath.Join(root, ValidationReportFile)
	case KindUIStructure:
		return filepath.Join(root, UIDir, UIStructureFile)
	default:
		return root
	}
}
