package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword. In tests replace it
// with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. The trailing newline is trimmed. If EOF occurs after some input
// was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a password prompt to w and reads a password from the
// user's terminal without echo.
//
// The returned byte slice should be wiped by the caller when no longer
// needed.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetFloat reads a decimal number; an empty line returns ok=false so
// optional onboarding fields can be skipped.
func GetFloat(reader *bufio.Reader, prompt string, w io.Writer) (float64, bool, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, false, err
	}
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	return v, true, nil
}

// GetInt reads an integer; an empty line returns ok=false.
func GetInt(reader *bufio.Reader, prompt string, w io.Writer) (int, bool, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, false, err
	}
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("not an integer: %q", s)
	}
	return v, true, nil
}

// GetChoice prompts until the user enters one of the allowed values or an
// empty line (ok=false).
func GetChoice(reader *bufio.Reader, prompt string, allowed []string, w io.Writer) (string, bool, error) {
	full := prompt + " [" + strings.Join(allowed, "/") + "]"
	for {
		s, err := GetSimpleText(reader, full, w)
		if err != nil {
			return "", false, err
		}
		if s == "" {
			return "", false, nil
		}
		for _, a := range allowed {
			if s == a {
				return s, true, nil
			}
		}
		fmt.Fprintf(w, "Please enter one of: %s\n", strings.Join(allowed, ", "))
	}
}
