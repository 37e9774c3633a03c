package lark

import (
	"context"
	"errors"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

const (
	msgTypeText        = "text"
	msgTypeInteractive = "interactive"
)

// Messenger implements port.Notifier over the Lark IM API
type Messenger struct {
	api    MessageAPI
	logger *zap.Logger
}

// NewMessenger creates a messenger over the IM service of an SDK client.
func NewMessenger(sdk *lark.Client, logger *zap.Logger) *Messenger {
	return NewMessengerWithAPI(sdk.Im.Message, logger)
}

// NewMessengerWithAPI creates a messenger over any MessageAPI
func NewMessengerWithAPI(api MessageAPI, logger *zap.Logger) *Messenger {
	return &Messenger{api: api, logger: logger}
}

// Post sends a card to each recipient. A failed recipient does not stop the rest.
func (m *Messenger) Post(ctx context.Context, recipients []string, text string, buttons []port.Button) ([]entity.MessageRef, error) {
	card, err := BuildCard(text, buttons)
	if err != nil {
		return nil, err
	}

	refs := make([]entity.MessageRef, 0, len(recipients))
	var errs []error
	for _, recipient := range recipients {
		ref, err := m.create(ctx, recipient, msgTypeInteractive, card)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", recipient, err))
			continue
		}
		refs = append(refs, ref)
	}
	return refs, errors.Join(errs...)
}

// Edit replaces a card with plain text and no buttons.
func (m *Messenger) Edit(ctx context.Context, ref entity.MessageRef, text string) error {
	card, err := BuildCard(text, nil)
	if err != nil {
		return err
	}

	req := larkim.NewPatchMessageReqBuilder().
		MessageId(ref.MessageID).
		Body(larkim.NewPatchMessageReqBodyBuilder().
			Content(card).
			Build()).
		Build()

	resp, err := m.api.Patch(ctx, req)
	if err != nil {
		m.logger.Error("Failed to patch message",
			zap.String("message_id", ref.MessageID),
			zap.Error(err))
		return fmt.Errorf("failed to patch message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("message_id", ref.MessageID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

// Send delivers plain text to one user or chat.
func (m *Messenger) Send(ctx context.Context, recipient string, text string) error {
	content, err := textContent(text)
	if err != nil {
		return err
	}
	_, err = m.create(ctx, recipient, msgTypeText, content)
	return err
}

// Reply answers in a chat, as a card when there are buttons.
func (m *Messenger) Reply(ctx context.Context, chatID string, text string, buttons []port.Button) error {
	if len(buttons) == 0 {
		return m.Send(ctx, chatID, text)
	}
	_, err := m.Post(ctx, []string{chatID}, text, buttons)
	return err
}

func (m *Messenger) create(ctx context.Context, receiveID, msgType, content string) (entity.MessageRef, error) {
	if receiveID == "" {
		return entity.MessageRef{}, fmt.Errorf("receive id cannot be empty")
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(ReceiveIDType(receiveID)).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.api.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return entity.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return entity.MessageRef{}, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	ref := entity.MessageRef{ChatID: receiveID}
	if resp.Data != nil {
		if resp.Data.MessageId != nil {
			ref.MessageID = *resp.Data.MessageId
		}
		if resp.Data.ChatId != nil {
			ref.ChatID = *resp.Data.ChatId
		}
	}

	m.logger.Debug("Message sent",
		zap.String("message_id", ref.MessageID),
		zap.String("receive_id", receiveID))
	return ref, nil
}

// Verify interface compliance
var _ port.Notifier = (*Messenger)(nil)
