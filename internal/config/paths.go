package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "salespipe/internal/errors"
)

// Path helpers. The config is the single source of truth for file
// locations; nothing else in the pipeline joins path segments. Relative
// paths resolve against the working directory, as with any batch CLI.

// OnlinePath returns the online source CSV path
func (c *Config) OnlinePath() string {
	return filepath.Join(c.Input.Dir, c.Input.OnlineFile)
}

// RetailPath returns the retail source CSV path
func (c *Config) RetailPath() string {
	return filepath.Join(c.Input.Dir, c.Input.RetailFile)
}

// WholesalePath returns the wholesale source CSV path
func (c *Config) WholesalePath() string {
	return filepath.Join(c.Input.Dir, c.Input.WholesaleFile)
}

// CleanCSVPath returns the clean-table CSV destination
func (c *Config) CleanCSVPath() string {
	return filepath.Join(c.Output.Dir, c.Output.CleanCSV)
}

// ResultsJSONPath returns the KPI document destination
func (c *Config) ResultsJSONPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ResultsJSON)
}

// WorkbookPath returns the dashboard workbook destination
func (c *Config) WorkbookPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Workbook)
}

// LogFilePath returns the log file destination for file/both output modes
func (c *Config) LogFilePath() string {
	return c.Logging.FilePath()
}

// FilePath returns the log file destination for file/both output modes
func (l LoggingConfig) FilePath() string {
	return filepath.Join(l.Dir, l.FileName)
}

// EnsureDirectories creates the directories the run writes into. Input
// directories are never created; missing inputs are a run error, not
// something to paper over.
func (c *Config) EnsureDirectories() error {
	directories := []string{c.Output.Dir}
	if c.Logging.Output != "stdout" {
		directories = append(directories, c.Logging.Dir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewStorageError(
				fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}
	return nil
}

// ValidateInputs checks that all three source files exist before the run
// starts, so a missing export fails immediately rather than mid-pipeline.
func (c *Config) ValidateInputs() error {
	required := map[string]string{
		"online":    c.OnlinePath(),
		"retail":    c.RetailPath(),
		"wholesale": c.WholesalePath(),
	}

	var missing []string
	for name, path := range required {
		if !FileExists(path) {
			missing = append(missing, fmt.Sprintf("%s (%s)", name, path))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.NewStorageError(
			fmt.Sprintf("source files missing: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
