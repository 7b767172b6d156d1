package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/rdecheck/rdecheck/pkg/check"
)

// usageErrorPrefixes identify cobra's flag and argument errors.
// See: https://github.com/spf13/cobra/pull/2266
var usageErrorPrefixes = []string{
	"flag needs an argument:",
	"unknown flag:",
	"unknown shorthand flag:",
	"unknown command",
	"invalid argument",
	"requires at least",
	"accepts ",
}

// ErrorHandler renders command errors for fang. Validation failures were
// already reported, so they get a one-line summary. Annotated rule table and
// configuration errors keep their source excerpt indented below the message.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	if errors.Is(err, check.ErrValidationFailed) {
		mustN(fmt.Fprintln(w, styles.ErrorText.UnsetWidth().Render(err.Error())))

		return
	}

	msg, source, _ := strings.Cut(err.Error(), "\n")

	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(msg)))
	if source != "" {
		mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(4).Render(source)))
	}
	mustN(fmt.Fprintln(w))

	if isUsageError(err) {
		mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
		)))
		mustN(fmt.Fprintln(w))
	}
}

func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
