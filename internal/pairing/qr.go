// Package pairing renders the backend's pairing payload as a terminal QR
// code.
package pairing

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Render converts a pairing payload to a compact QR code using Unicode
// half-block characters, two modules per cell vertically. Each line is
// prefixed with indent.
func Render(payload, indent string) (string, error) {
	qr, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return "", err
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString(indent)
		for x := range cols {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			sb.WriteRune(block(top, bot))
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func block(top, bot bool) rune {
	switch {
	case top && bot:
		return '█'
	case top:
		return '▀'
	case bot:
		return '▄'
	default:
		return ' '
	}
}
