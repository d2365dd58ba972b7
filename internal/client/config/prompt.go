package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/here/internal/cryptox"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Prompter asks the user for the values of a new config file.
type Prompter struct {
	reader *bufio.Reader
	w      io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), w: out}
}

// Text prints prompt and reads one trimmed line. A final line without a
// newline is accepted.
func (p *Prompter) Text(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password prints prompt and reads a password without echo when stdin is a
// terminal, or as a plain line otherwise.
func (p *Prompter) Password(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return p.Text(prompt)
	}
	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	defer cryptox.Wipe(pw)
	fmt.Fprintln(p.w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pw)), nil
}

// Ask fills the identity fields of cfg interactively. An empty password
// means none.
func (p *Prompter) Ask(cfg *Config) error {
	account, err := p.Text("Please input the account: ")
	if err != nil {
		return fmt.Errorf("read account: %w", err)
	}
	passwd, err := p.Password("Please input the password (leave it empty for no password): ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	apiURL, err := p.Text("Please input the API URL (example: http://localhost:8080/here): ")
	if err != nil {
		return fmt.Errorf("read api url: %w", err)
	}

	cfg.Account = account
	cfg.Passwd = nil
	if passwd != "" {
		cfg.Passwd = &passwd
	}
	cfg.APIURL = apiURL
	return nil
}
