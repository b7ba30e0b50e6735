package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the terminal host.
type Theme struct {
	BgColor       tcell.Color
	FgColor       tcell.Color
	BorderColor   tcell.Color
	TitleColor    tcell.Color
	CursorFg      tcell.Color
	CursorBg      tcell.Color
	MenuKeyColor  tcell.Color
	OwnMessage    tcell.Color
	PeerMessage   tcell.Color
	SystemMessage tcell.Color
	StatusColor   tcell.Color
	ErrColor      tcell.Color
	ProgressColor tcell.Color
	PlaceholderFg tcell.Color
	ComposeCursor tcell.Color
}

// DefaultTheme returns a WhatsApp-green dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:       tcell.ColorBlack,
		FgColor:       tcell.ColorWhiteSmoke,
		BorderColor:   tcell.ColorSeaGreen,
		TitleColor:    tcell.ColorLimeGreen,
		CursorFg:      tcell.ColorBlack,
		CursorBg:      tcell.ColorLimeGreen,
		MenuKeyColor:  tcell.ColorSeaGreen,
		OwnMessage:    tcell.ColorLightGreen,
		PeerMessage:   tcell.ColorWhiteSmoke,
		SystemMessage: tcell.ColorGray,
		StatusColor:   tcell.ColorNavajoWhite,
		ErrColor:      tcell.ColorOrangeRed,
		ProgressColor: tcell.ColorLimeGreen,
		PlaceholderFg: tcell.ColorGray,
		ComposeCursor: tcell.ColorLimeGreen,
	}
}

// Tag returns the tview color tag for c, e.g. "[seagreen]".
func Tag(c tcell.Color) string {
	return "[" + ColorName(c) + "]"
}

// ColorName returns a tview-compatible color name string.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
