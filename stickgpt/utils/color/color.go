package color

import (
	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
	roleColors   = map[string]*color.Color{
		"user":      color.New(color.FgHiBlue, color.Bold),
		"assistant": color.New(color.FgHiYellow, color.Bold),
		"system":    color.New(color.FgMagenta),
	}
)

// Disable turns colors off, e.g. for --no-color or piped output.
func Disable() {
	color.NoColor = true
}

func ColorHeader(s string) string {
	return headerColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorWarning(s string) string {
	return warningColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorMuted(s string) string {
	return mutedColor.Sprint(s)
}

// ColorRole colors a chat message role; unknown roles are returned as is.
func ColorRole(role string) string {
	if c, ok := roleColors[role]; ok {
		return c.Sprint(role)
	}
	return role
}
