package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/kazz187/agentsync/pkg/color"
	"github.com/kazz187/agentsync/pkg/panicerr"
)

// promptConfirmer asks once for the whole batch: "y" approves everything,
// "n" nothing, and a space or comma separated list picks identifiers.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p *promptConfirmer) Confirm(ctx context.Context, ids []string) ([]string, error) {
	fmt.Fprintf(p.out, "%d agent(s) will change:\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(p.out, "  %s\n", color.AgentPrefix(id))
	}
	fmt.Fprint(p.out, "Apply? [y/N or identifiers]: ")

	var line string
	done := panicerr.Go(ctx, func(context.Context) error {
		var err error
		line, err = bufio.NewReader(p.in).ReadString('\n')
		return err
	})

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read answer: %w", err)
		}
		return parseAnswer(line, ids), nil
	case <-ctx.Done():
		// Unblock the pending read so it cannot swallow the next answer.
		// Inputs without deadline support keep the read goroutine parked
		// until a line arrives.
		if d, ok := p.in.(interface{ SetReadDeadline(time.Time) error }); ok && d.SetReadDeadline(time.Now()) == nil {
			<-done
			_ = d.SetReadDeadline(time.Time{})
		}
		return nil, ctx.Err()
	}
}

func parseAnswer(line string, ids []string) []string {
	answer := strings.TrimSpace(line)
	switch strings.ToLower(answer) {
	case "y", "yes", "a", "all":
		return ids
	case "", "n", "no":
		return nil
	}
	var approved []string
	for _, f := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' }) {
		if slices.Contains(ids, f) && !slices.Contains(approved, f) {
			approved = append(approved, f)
		}
	}
	return approved
}
