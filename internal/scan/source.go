package scan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pathutils "github.com/temirov/sigaudit/internal/utils/path"
)

const (
	standardInputSourceConstant       = "-"
	sourceMissingMessageConstant      = "contract source is required: pass a path, --file, or - for standard input"
	sourceConflictMessageConstant     = "pass the contract source either as an argument or with --file, not both"
	readSourceErrorTemplateConstant   = "failed to read contract source %s: %w"
	readStandardInputTemplateConstant = "failed to read contract source from standard input: %w"
	approvalRequiredMessageConstant   = "--yes is required when the contract source is read from standard input"
)

var (
	errSourceMissing  = errors.New(sourceMissingMessageConstant)
	errSourceConflict = errors.New(sourceConflictMessageConstant)
)

// ErrStandardInputNeedsApproval indicates interactive wallet prompts were requested while standard input carries the source.
var ErrStandardInputNeedsApproval = errors.New(approvalRequiredMessageConstant)

// IsStandardInput reports whether sourcePath selects standard input.
func IsStandardInput(sourcePath string) bool {
	return sourcePath == standardInputSourceConstant
}

// FileReader reads a file's contents.
type FileReader func(path string) ([]byte, error)

// SourceReader loads contract source code from a file or standard input.
type SourceReader struct {
	readFile      FileReader
	standardInput io.Reader
	homeExpander  *pathutils.HomeExpander
}

// NewSourceReader constructs a SourceReader. A nil readFile uses os.ReadFile; a nil input uses os.Stdin.
func NewSourceReader(readFile FileReader, standardInput io.Reader) *SourceReader {
	if readFile == nil {
		readFile = os.ReadFile
	}
	if standardInput == nil {
		standardInput = os.Stdin
	}
	return &SourceReader{readFile: readFile, standardInput: standardInput, homeExpander: pathutils.NewHomeExpander()}
}

// ResolveSourcePath picks the source location from the positional argument and the --file value.
func ResolveSourcePath(argumentPath string, flagPath string) (string, error) {
	trimmedArgument := strings.TrimSpace(argumentPath)
	trimmedFlag := strings.TrimSpace(flagPath)
	switch {
	case len(trimmedArgument) > 0 && len(trimmedFlag) > 0:
		return "", errSourceConflict
	case len(trimmedArgument) > 0:
		return trimmedArgument, nil
	case len(trimmedFlag) > 0:
		return trimmedFlag, nil
	default:
		return "", errSourceMissing
	}
}

// Read returns the source text at path, where "-" reads standard input. The text is returned unmodified.
func (reader *SourceReader) Read(path string) (string, error) {
	if path == standardInputSourceConstant {
		contents, readError := io.ReadAll(reader.standardInput)
		if readError != nil {
			return "", fmt.Errorf(readStandardInputTemplateConstant, readError)
		}
		return string(contents), nil
	}

	expandedPath := reader.homeExpander.Expand(path)
	contents, readError := reader.readFile(expandedPath)
	if readError != nil {
		return "", fmt.Errorf(readSourceErrorTemplateConstant, expandedPath, readError)
	}
	return string(contents), nil
}
