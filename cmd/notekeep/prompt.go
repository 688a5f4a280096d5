package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var stdinReader = bufio.NewReader(os.Stdin)

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// promptLine asks for a single line on stderr and reads it from stdin.
func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(label)
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// credentials fills whatever the flags left empty from the terminal.
func credentials(email, password string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = promptLine("Email"); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password = os.Getenv("NOTEKEEP_PASSWORD"); password == "" {
			if password, err = promptPassword("Password"); err != nil {
				return "", "", err
			}
		}
	}
	return email, password, nil
}
