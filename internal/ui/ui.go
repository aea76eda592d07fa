// Package ui renders index contents for the terminal: lipgloss tables when
// stdout is a TTY, tab-separated text when it is not.
package ui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ColorEnv forces styling on ("always") or off ("never"). Any other value
// leaves the decision to Interactive's detection.
const ColorEnv = "MDINDEX_COLOR"

// ciEnv are variables whose presence marks a CI runner.
var ciEnv = []string{"GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS", "BUILDKITE", "CIRCLECI"}

// IsTTY reports whether w is a terminal, including Cygwin/MSYS ptys.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether the environment asks for plain output:
// NO_COLOR set to anything, or TERM=dumb.
func DetectNoColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

// DetectCI reports whether the process runs under a CI system. CI=false
// and CI=0 are honoured as "not CI".
func DetectCI() bool {
	if v, ok := os.LookupEnv("CI"); ok {
		switch strings.ToLower(v) {
		case "false", "0":
		default:
			return true
		}
	}
	for _, k := range ciEnv {
		if _, ok := os.LookupEnv(k); ok {
			return true
		}
	}
	return false
}

// Interactive reports whether w gets styled tables and icons.
func Interactive(w io.Writer) bool {
	switch strings.ToLower(os.Getenv(ColorEnv)) {
	case "always":
		return true
	case "never":
		return false
	}
	return IsTTY(w) && !DetectCI() && !DetectNoColor()
}
