package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, inputError(ErrMsgReadStdinFailed, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, inputError(ErrMsgReadFileFailed, err)
	}
	return data, nil
}

// readPrompt takes the prompt from --file, from stdin when the only
// argument is "-", or from the joined arguments. Trailing newlines of file
// input are dropped.
func (c *cli) readPrompt(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString(FlagFile)

	switch {
	case file != "":
	case len(args) == 1 && args[0] == InputSourceStdin:
		file = InputSourceStdin
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", usageError(ErrMsgMissingPrompt, nil)
	}

	data, err := readInput(file, c.stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// addPromptFlags registers the flags shared by prompt commands
func addPromptFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(FlagFile, FlagFileShort, "", `read the prompt from a file ("-" for stdin)`)
}

// writeJSON writes v as indented JSON
func (c *cli) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return runtimeError(ErrMsgJSONMarshalFailed, err)
	}
	data = append(data, '\n')
	if _, err := c.stdout.Write(data); err != nil {
		return runtimeError(ErrMsgWriteOutputFailed, err)
	}
	return nil
}
