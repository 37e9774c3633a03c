// Package websocket connects the bot to Lark over the SDK's long connection.
// It translates message and card action events into bot updates.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkdispatcher "github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher/callback"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/budget-approval/internal/interfaces/bot"
)

// UpdateHandler consumes translated updates. *bot.Router implements it.
type UpdateHandler interface {
	Handle(ctx context.Context, u bot.Update) error
}

// LarkAdapterConfig holds configuration for the Lark WebSocket adapter.
type LarkAdapterConfig struct {
	AppID     string
	AppSecret string
}

// LarkAdapter wraps the Lark WebSocket SDK client. Events are acknowledged
// immediately and handled in background goroutines, since Lark redelivers
// events that are not acknowledged within a few seconds.
type LarkAdapter struct {
	cfg     LarkAdapterConfig
	handler UpdateHandler
	logger  *zap.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
}

// NewLarkAdapter creates a new Lark WebSocket adapter.
func NewLarkAdapter(cfg LarkAdapterConfig, handler UpdateHandler, logger *zap.Logger) *LarkAdapter {
	return &LarkAdapter{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Start connects and blocks until the context is cancelled or the client fails.
func (a *LarkAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("adapter already started")
	}
	a.started = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.started = false
		a.mu.Unlock()
		a.wg.Wait()
	}()

	// Verification token and encrypt key are not used in long connection mode.
	sdkDispatcher := larkdispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(c context.Context, evt *larkim.P2MessageReceiveV1) error {
			return a.onMessage(ctx, evt)
		}).
		OnP2CardActionTrigger(func(c context.Context, evt *callback.CardActionTriggerEvent) (*callback.CardActionTriggerResponse, error) {
			return a.onCardAction(ctx, evt)
		})

	wsClient := larkws.NewClient(
		a.cfg.AppID,
		a.cfg.AppSecret,
		larkws.WithEventHandler(sdkDispatcher),
		larkws.WithLogger(lark.NewSDKLogger(a.logger)),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	a.logger.Info("Starting Lark WebSocket adapter", zap.String("app_id", a.cfg.AppID))

	if err := wsClient.Start(ctx); err != nil {
		a.logger.Error("Lark WebSocket client error", zap.Error(err))
		return fmt.Errorf("websocket client error: %w", err)
	}
	return nil
}

// IsRunning returns whether the adapter is currently connected.
func (a *LarkAdapter) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.started
}

func (a *LarkAdapter) onMessage(ctx context.Context, evt *larkim.P2MessageReceiveV1) error {
	if evt == nil || evt.Event == nil {
		return nil
	}
	body, err := json.Marshal(evt.Event)
	if err != nil {
		return fmt.Errorf("failed to encode message event: %w", err)
	}
	u, ok, err := updateFromMessage(body)
	if err != nil {
		a.logger.Error("Failed to parse message event", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	a.dispatch(ctx, u)
	return nil
}

func (a *LarkAdapter) onCardAction(ctx context.Context, evt *callback.CardActionTriggerEvent) (*callback.CardActionTriggerResponse, error) {
	if evt == nil || evt.Event == nil {
		return nil, nil
	}
	body, err := json.Marshal(evt.Event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card action: %w", err)
	}
	u, err := updateFromCardAction(body)
	if err != nil {
		a.logger.Error("Failed to parse card action", zap.Error(err))
		return toast("error", "This button is no longer valid."), nil
	}
	a.dispatch(ctx, u)
	return toast("info", "Processing..."), nil
}

// dispatch hands the update to the router on a context that outlives the SDK
// callback but stops with the adapter.
func (a *LarkAdapter) dispatch(ctx context.Context, u bot.Update) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.handler.Handle(ctx, u); err != nil {
			a.logger.Error("Failed to handle update",
				zap.String("user_id", u.UserID),
				zap.String("chat_id", u.ChatID),
				zap.Error(err))
		}
	}()
}

func toast(kind, content string) *callback.CardActionTriggerResponse {
	return &callback.CardActionTriggerResponse{
		Toast: &callback.Toast{Type: kind, Content: content},
	}
}

// messageEvent is the part of im.message.receive_v1 the bot reads.
type messageEvent struct {
	Sender struct {
		SenderID struct {
			OpenID string `json:"open_id"`
		} `json:"sender_id"`
		SenderType string `json:"sender_type"`
	} `json:"sender"`
	Message struct {
		MessageID   string `json:"message_id"`
		ChatID      string `json:"chat_id"`
		MessageType string `json:"message_type"`
		Content     string `json:"content"`
	} `json:"message"`
}

// updateFromMessage translates a text message. ok is false for messages the
// bot does not react to, such as images or messages sent by other apps.
func updateFromMessage(body []byte) (bot.Update, bool, error) {
	var evt messageEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return bot.Update{}, false, fmt.Errorf("failed to parse message event: %w", err)
	}
	if evt.Message.MessageType != "text" || evt.Sender.SenderType == "app" {
		return bot.Update{}, false, nil
	}

	var content struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(evt.Message.Content), &content); err != nil {
		return bot.Update{}, false, fmt.Errorf("failed to parse message content: %w", err)
	}

	return bot.Update{
		UserID: evt.Sender.SenderID.OpenID,
		ChatID: evt.Message.ChatID,
		Text:   stripMentions(content.Text),
	}, true, nil
}

// stripMentions drops the @_user_N placeholders Lark inserts for mentions.
// Line breaks and spacing are kept so dialog comments are stored as typed.
func stripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}

var mentionPattern = regexp.MustCompile(`@_(?:user_\d+|all)[ \t]?`)

// cardActionEvent is the part of card.action.trigger the bot reads.
type cardActionEvent struct {
	Operator struct {
		OpenID string `json:"open_id"`
	} `json:"operator"`
	Action struct {
		Value map[string]interface{} `json:"value"`
	} `json:"action"`
	Context struct {
		OpenMessageID string `json:"open_message_id"`
		OpenChatID    string `json:"open_chat_id"`
	} `json:"context"`
}

func updateFromCardAction(body []byte) (bot.Update, error) {
	var evt cardActionEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return bot.Update{}, fmt.Errorf("failed to parse card action: %w", err)
	}
	cb, err := lark.DecodeCallback(evt.Action.Value)
	if err != nil {
		return bot.Update{}, err
	}
	return bot.Update{
		UserID:    evt.Operator.OpenID,
		ChatID:    evt.Context.OpenChatID,
		Callback:  &cb,
		MessageID: evt.Context.OpenMessageID,
	}, nil
}
