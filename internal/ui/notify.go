package ui

import (
	"fmt"
	"io"
)

// consoleNotifier prints the operator notifications of a regeneration.
type consoleNotifier struct {
	out io.Writer
}

func (n consoleNotifier) Info(msg string) {
	fmt.Fprintln(n.out, formatOK(msg))
}

func (n consoleNotifier) Log(msg string) {
	fmt.Fprintln(n.out, formatWarn("  "+msg))
}

func (n consoleNotifier) Err(msg string, err error) {
	if err == nil {
		fmt.Fprintln(n.out, formatErr(msg))
		return
	}
	fmt.Fprintf(n.out, "%s %s\n", formatErr(msg), formatMuted("("+err.Error()+")"))
}
