package cli

import (
	"context"

	"github.com/atotto/clipboard"
)

// systemClipboard writes to the OS clipboard.
type systemClipboard struct{}

func (systemClipboard) WriteText(_ context.Context, text string) error {
	return clipboard.WriteAll(text)
}
