package ui

import (
	"io"

	qrterminal "github.com/mdp/qrterminal/v3"
)

// WriteQR draws text as a QR code using full block characters.
func WriteQR(w io.Writer, text string) {
	qrterminal.GenerateWithConfig(text, qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    w,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
}
