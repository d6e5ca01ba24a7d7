package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/reviewservice"
)

const (
	// FileNameConstant is the file written inside every result directory.
	FileNameConstant                      = "results.json"
	directoryTimestampLayoutConstant      = "20060102_150405"
	directoryNameTemplateConstant         = "%s_%s"
	walletDirectoryPrefixLengthConstant   = 6
	unknownWalletDirectoryConstant        = "unknown"
	directoryPermissionsConstant          = 0o755
	filePermissionsConstant               = 0o600
	jsonIndentConstant                    = "  "
	outputDirectoryMissingMessageConstant = "output directory must be provided"
	createDirectoryErrorTemplateConstant  = "failed to create output dir: %w"
	encodeRecordErrorTemplateConstant     = "failed to encode results: %w"
	writeRecordErrorTemplateConstant      = "failed to write %s: %w"
	readRecordErrorTemplateConstant       = "failed to read %s: %w"
	decodeRecordErrorTemplateConstant     = "failed to decode %s: %w"
	unsafePathCharactersConstant          = "/\\:*?\"<>|"
	unsafePathReplacementConstant         = "_"
)

// ErrOutputDirectoryNotConfigured indicates a Store constructed without a directory.
var ErrOutputDirectoryNotConfigured = errors.New(outputDirectoryMissingMessageConstant)

// Record is the persisted envelope around a scan response.
type Record struct {
	Wallet    string                     `json:"wallet"`
	ScannedAt time.Time                  `json:"scanned_at"`
	Response  reviewservice.ScanResponse `json:"response"`
}

// Store writes records under a base directory.
type Store struct {
	directory string
	clock     attestation.Clock
}

// NewStore constructs a Store rooted at directory. A nil clock uses the system clock.
func NewStore(directory string, clock attestation.Clock) (*Store, error) {
	trimmedDirectory := strings.TrimSpace(directory)
	if len(trimmedDirectory) == 0 {
		return nil, ErrOutputDirectoryNotConfigured
	}
	if clock == nil {
		clock = attestation.SystemClock{}
	}
	return &Store{directory: trimmedDirectory, clock: clock}, nil
}

// Save writes the response to <directory>/<wallet prefix>_<timestamp>/results.json and returns the file path.
func (store *Store) Save(walletAddress string, response reviewservice.ScanResponse) (string, error) {
	scannedAt := store.clock.Now().UTC()
	recordDirectory := filepath.Join(store.directory, DirectoryName(walletAddress, scannedAt))
	if mkdirError := os.MkdirAll(recordDirectory, directoryPermissionsConstant); mkdirError != nil {
		return "", fmt.Errorf(createDirectoryErrorTemplateConstant, mkdirError)
	}

	encodedRecord, encodeError := json.MarshalIndent(Record{Wallet: walletAddress, ScannedAt: scannedAt, Response: response}, "", jsonIndentConstant)
	if encodeError != nil {
		return "", fmt.Errorf(encodeRecordErrorTemplateConstant, encodeError)
	}

	recordPath := filepath.Join(recordDirectory, FileNameConstant)
	if writeError := os.WriteFile(recordPath, append(encodedRecord, '\n'), filePermissionsConstant); writeError != nil {
		return "", fmt.Errorf(writeRecordErrorTemplateConstant, recordPath, writeError)
	}
	return recordPath, nil
}

// Load reads a record from a results file or from a directory containing one.
func Load(path string) (Record, error) {
	recordPath := strings.TrimSpace(path)
	if info, statError := os.Stat(recordPath); statError == nil && info.IsDir() {
		recordPath = filepath.Join(recordPath, FileNameConstant)
	}

	contents, readError := os.ReadFile(recordPath)
	if readError != nil {
		return Record{}, fmt.Errorf(readRecordErrorTemplateConstant, recordPath, readError)
	}

	var record Record
	if decodeError := json.Unmarshal(contents, &record); decodeError != nil {
		return Record{}, fmt.Errorf(decodeRecordErrorTemplateConstant, recordPath, decodeError)
	}
	return record, nil
}

// DirectoryName derives the per-scan directory name from the wallet prefix and the scan time.
func DirectoryName(walletAddress string, scannedAt time.Time) string {
	walletPrefix := strings.TrimSpace(walletAddress)
	if len(walletPrefix) > walletDirectoryPrefixLengthConstant {
		walletPrefix = walletPrefix[:walletDirectoryPrefixLengthConstant]
	}
	if len(walletPrefix) == 0 {
		walletPrefix = unknownWalletDirectoryConstant
	}
	for _, unsafeCharacter := range unsafePathCharactersConstant {
		walletPrefix = strings.ReplaceAll(walletPrefix, string(unsafeCharacter), unsafePathReplacementConstant)
	}
	return fmt.Sprintf(directoryNameTemplateConstant, walletPrefix, scannedAt.UTC().Format(directoryTimestampLayoutConstant))
}
