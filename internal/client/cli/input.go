package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const maxMultilineRunes = 20000

var (
	errNoTerminal = errors.New("password input needs a terminal")
	errTooLong    = errors.New("text is too long")
)

// GetSimpleText shows prompt on w and reads one line from reader.
// Surrounding space and control characters are dropped. A last line
// without a newline is accepted; an empty read at EOF returns io.EOF.
//
//	Enter username
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return cleanLine(line), nil
}

// GetPassword reads the password from the terminal without echo. The caller
// wipes the returned slice.
func GetPassword(w io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return nil, errNoTerminal
	}
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	return pw, err
}

// GetMultiline reads a news body: lines up to the first empty one, or EOF.
// CRLF endings are accepted. Bodies over maxMultilineRunes are rejected.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintln(w, prompt); err != nil {
		return "", err
	}

	var (
		b     strings.Builder
		runes int
	)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			runes += len([]rune(line)) + 1
			if runes > maxMultilineRunes {
				return "", errTooLong
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
		}
		if line == "" || err != nil {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func cleanLine(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, s))
}
