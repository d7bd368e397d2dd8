package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks on the terminal before a workflow touches the host.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, yes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, yes: yes}
}

// Confirm implements usecase.Confirmer. Only "y" and "yes" approve.
func (c *promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.yes {
		return true, nil
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
