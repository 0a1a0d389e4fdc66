package cli

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
)

// linePrompter asks for a template on the same input the builder reads.
type linePrompter struct {
	app *App
}

func (p linePrompter) ConfirmManualSelection(ctx context.Context) (bool, error) {
	answer, ok := p.app.ask("Template file not found. Select a file manually? [y/N]: ")
	if !ok {
		return false, pkgerrors.New(pkgerrors.CodeUserCancelled, "input closed")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p linePrompter) ChooseTemplate(ctx context.Context) (string, error) {
	path, ok := p.app.ask("Template path (empty to cancel): ")
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(path), nil
}
