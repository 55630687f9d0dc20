package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"   ___                _               ", "#818cf8"},
	{"  / __\\___  _ __  ___(_) ___ _ __ __ _  ___ ", "#a78bfa"},
	{" / /  / _ \\| '_ \\/ __| |/ _ \\ '__/ _` |/ _ \\", "#c084fc"},
	{"/ /__| (_) | | | | (__| |  __/ | | (_| |  __/", "#e879f9"},
	{"\\____/\\___/|_| |_|\\___|_|\\___|_|  \\__, |\\___|", "#f472b6"},
	{"                                  |___/      ", "#fb7185"},
}

// PrintBanner writes the Concierge banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  version "+version).Faint())
	fmt.Fprintln(w)
}

// StatusLine colors a short status label for a response.
func StatusLine(status domain.Status, text string) string {
	p := termenv.EnvColorProfile()
	color := "#22c55e"
	switch status {
	case domain.StatusNeedsInput:
		color = "#eab308"
	case domain.StatusPrerequisiteFailed, domain.StatusInvalidTransition:
		color = "#f97316"
	case domain.StatusError:
		color = "#ef4444"
	}
	return termenv.String("["+string(status)+"] ").Foreground(p.Color(color)).Bold().String() + text
}
