package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"orgsite-client/internal/dialog"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/notify"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	toastStyles = map[notify.Severity]lipgloss.Style{
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}

	toastIcons = map[notify.Severity]string{
		notify.Success: "✓",
		notify.Error:   "✗",
		notify.Warning: "!",
		notify.Info:    "i",
	}
)

// toastSink prints every notification as one styled line.
func toastSink(w io.Writer) notify.Sink {
	var mu sync.Mutex
	return func(n notify.Notification) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, toastStyles[n.Severity].Render(toastIcons[n.Severity]+" "+n.Message))
	}
}

// prompter answers confirm dialogs from the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // terminal descriptor of stdin, -1 when stdin is not a terminal

	mu        sync.Mutex
	assumeYes bool
	resolve   func(id, action string) bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// bind connects the prompter to the manager it answers for.
func (p *prompter) bind(resolve func(id, action string) bool) {
	p.mu.Lock()
	p.resolve = resolve
	p.mu.Unlock()
}

func (p *prompter) setAssumeYes(v bool) {
	p.mu.Lock()
	p.assumeYes = v
	p.mu.Unlock()
}

func (p *prompter) ask(d dialog.Dialog) {
	if !d.Prompt {
		return
	}
	p.mu.Lock()
	resolve, yes := p.resolve, p.assumeYes
	p.mu.Unlock()
	if resolve == nil {
		return
	}

	if yes {
		resolve(d.ID, dialog.ActionConfirm)
		return
	}

	fmt.Fprintf(p.out, "%s %s [y/N] ", titleStyle.Render(d.Options.Title+":"), d.Options.Content)
	line, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		resolve(d.ID, dialog.ActionConfirm)
	default:
		resolve(d.ID, dialog.ActionCancel)
	}
}

// readLine prompts for a value on the terminal.
func (p *prompter) readLine(label string) string {
	fmt.Fprint(p.out, label+": ")
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret prompts without echo on a terminal. Piped input is read as a
// plain line.
func (p *prompter) readSecret(label string) string {
	if p.fd < 0 {
		return p.readLine(label)
	}
	fmt.Fprint(p.out, label+": ")
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(secret))
}

// printRecords writes one compact JSON object per line. Keys are sorted by
// encoding/json, so output is stable.
func printRecords(w io.Writer, records []domain.Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func printRecord(w io.Writer, rec domain.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
}
