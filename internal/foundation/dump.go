package foundation

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// RawDumpPath is where Dump writes the collections of a job
func RawDumpPath(dir, jobID string) string {
	return filepath.Join(dir, "reviews_raw_"+jobID+".json")
}

// FoundationDumpPath is where Dump writes the report of a job
func FoundationDumpPath(dir, jobID string) string {
	return filepath.Join(dir, "reviews_foundation_"+jobID+".json")
}

// Dump writes the raw collections and the foundation report for a job
func Dump(dir string, report *model.FoundationReport, cols []*model.Collection) error {
	if report == nil {
		return eris.New("foundation: nil report")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrap(err, "foundation: create debug dir")
	}
	if err := WriteJSON(RawDumpPath(dir, report.JobID), cols); err != nil {
		return err
	}
	return WriteJSON(FoundationDumpPath(dir, report.JobID), report)
}

// LoadDump reads back what Dump wrote
func LoadDump(dir, jobID string) (*model.FoundationReport, []*model.Collection, error) {
	var cols []*model.Collection
	if err := readJSON(RawDumpPath(dir, jobID), &cols); err != nil {
		return nil, nil, err
	}
	var report model.FoundationReport
	if err := readJSON(FoundationDumpPath(dir, jobID), &report); err != nil {
		return nil, nil, err
	}
	return &report, cols, nil
}

// WriteJSON writes v as indented JSON, creating parent directories
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "foundation: marshal %s", filepath.Base(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrap(err, "foundation: create output dir")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return eris.Wrapf(err, "foundation: write %s", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "foundation: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "foundation: decode %s", path)
	}
	return nil
}
