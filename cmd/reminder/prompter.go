package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Ayushbunkar/Meditrack/internal/scheduler"
)

// terminalPrompter rings the bell and asks on the terminal. Prompts are
// serialized; a single goroutine owns the input stream.
type terminalPrompter struct {
	out   io.Writer
	lines <-chan string
	mu    sync.Mutex
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return &terminalPrompter{out: out, lines: lines}
}

func (p *terminalPrompter) Prompt(ctx context.Context, r scheduler.Reminder) (scheduler.Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx.Err() != nil {
		return scheduler.AnswerNone, ctx.Err()
	}

	fmt.Fprintf(p.out, "\a\nTime to take %s", r.Name)
	if r.Dosage != "" {
		fmt.Fprintf(p.out, " (%s)", r.Dosage)
	}
	fmt.Fprintf(p.out, " [%s]\nTaken? [y]es / [n]o / [s]kip: ", r.Time)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out, "\nNo answer, reminder left pending.")
			return scheduler.AnswerNone, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return scheduler.AnswerNone, io.EOF
			}
			if answer, valid := parseAnswer(line); valid {
				return answer, nil
			}
			fmt.Fprint(p.out, "Please answer y or n (s to skip): ")
		}
	}
}

func parseAnswer(s string) (scheduler.Answer, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "taken":
		return scheduler.AnswerTaken, true
	case "n", "no", "missed":
		return scheduler.AnswerMissed, true
	case "s", "skip", "":
		return scheduler.AnswerNone, true
	default:
		return scheduler.AnswerNone, false
	}
}
