package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedConfigExtensions lists the config formats the CLI accepts.
var supportedConfigExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// ValidateConfigFile checks that an explicitly-passed config file exists,
// is a regular file, and carries a supported extension.
func ValidateConfigFile(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewNotFoundError(fmt.Sprintf("config file '%s'", path)).
				WithSuggestion("Check the path passed to --config")
		}
		return NewFileSystemError("stat", path, err)
	}
	if info.IsDir() {
		return NewValidationError(fmt.Sprintf("config path '%s' is a directory, not a file", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range supportedConfigExtensions {
		if ext == supported {
			return nil
		}
	}
	return NewValidationError(fmt.Sprintf("unsupported config file extension '%s'", ext)).
		WithSuggestion("Use a .yaml, .yml, .json, or .toml config file")
}

// HandleValidationError renders a CLIError to stderr with its context and
// suggestions, then exits with the error's exit code. Non-CLIError values
// get a plain rendering and a general-error exit.
func HandleValidationError(err error, suggestedCommand string) {
	var cliErr CLIError
	switch e := err.(type) {
	case CLIError:
		cliErr = e
	case *CLIError:
		cliErr = *e
	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %s\n", err.Error())
		os.Exit(ExitCodes.GeneralError)
		return
	}

	fmt.Fprintf(os.Stderr, "❌ %s\n", cliErr.Message)
	if cliErr.Context != "" {
		fmt.Fprintf(os.Stderr, "   Context: %s\n", cliErr.Context)
	}
	if len(cliErr.Suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n💡 Suggestions:\n")
		for _, suggestion := range cliErr.Suggestions {
			fmt.Fprintf(os.Stderr, "   - %s\n", suggestion)
		}
	}
	if suggestedCommand != "" {
		fmt.Fprintf(os.Stderr, "\n💡 Try: %s\n", suggestedCommand)
	}
	os.Exit(cliErr.ExitCode())
}
