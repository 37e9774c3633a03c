// Package bot maps chat updates to application service calls. It knows
// nothing about the transport; gateways build an Update and pass a Responder.
package bot

import (
	"context"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/dialog"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Update is one inbound chat event: a text message or a button press.
type Update struct {
	UserID string
	ChatID string
	Text   string

	// Callback is set for button presses; Text is ignored then.
	Callback *port.Callback
	// MessageID is the card the pressed button sits on, when known.
	MessageID string
}

// Key returns the dialog session key of the update.
func (u Update) Key() dialog.Key {
	return dialog.Key{UserID: u.UserID, ChatID: u.ChatID}
}

// Responder answers in the chat the update came from.
type Responder interface {
	Reply(ctx context.Context, chatID string, text string, buttons []port.Button) error
	// Edit replaces a sent card with plain text, dropping its buttons.
	Edit(ctx context.Context, ref entity.MessageRef, text string) error
}
