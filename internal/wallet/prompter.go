package wallet

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// ConfirmationPrompter asks the user to approve a wallet interaction.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	mutex  sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes). End of input declines.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()

	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return false, readError
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AutoApprovePrompter approves every prompt, used for --yes and confirm: false.
type AutoApprovePrompter struct{}

// Confirm always approves.
func (AutoApprovePrompter) Confirm(string) (bool, error) {
	return true, nil
}
