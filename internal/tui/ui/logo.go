package ui

import (
	"fmt"
	"strings"
)

var logoLines = []string{
	"╦ ╦╔═╗╔═╗",
	"║║║╠═╝╠═╝",
	"╚╩╝╩  ╩  ",
}

// Logo returns the splash logo as tview markup.
func Logo(theme *Theme, subtitle string) string {
	var sb strings.Builder
	for _, line := range logoLines {
		_, _ = fmt.Fprintf(&sb, "[%s::b]%s[-:-:-]\n", ColorName(theme.TitleColor), line)
	}
	_, _ = fmt.Fprintf(&sb, "[%s]%s[-:-:-]", ColorName(theme.FgColor), subtitle)
	return sb.String()
}
