package cook

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// input is one post to cook. name is "-" for stdin.
type input struct {
	name string
	src  string
}

// readInput returns the named file, or in when no file (or "-") is given.
// An interactive terminal on stdin is rejected rather than waited on.
func readInput(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "", errors.New("no input: pass a file or pipe content on stdin")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// readInputs reads every argument, or stdin when there are none. stdin
// may be named once.
func readInputs(args []string, in io.Reader) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	inputs := make([]input, 0, len(args))
	stdinRead := false
	for _, name := range args {
		if name == "-" {
			if stdinRead {
				return nil, errors.New("stdin (-) may only be given once")
			}
			stdinRead = true
		}
		src, err := readInput([]string{name}, in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		inputs = append(inputs, input{name: name, src: src})
	}
	return inputs, nil
}
