package lark

import (
	"context"
	"strings"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// MessageAPI is the part of the IM service the messenger uses.
// The SDK's client.Im.Message satisfies it.
type MessageAPI interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
	Patch(ctx context.Context, req *larkim.PatchMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.PatchMessageResp, error)
}

// Receive id types accepted by im/v1 message create.
const (
	ReceiveIDTypeChatID  = "chat_id"
	ReceiveIDTypeOpenID  = "open_id"
	ReceiveIDTypeUnionID = "union_id"
	ReceiveIDTypeUserID  = "user_id"
)

// ReceiveIDType infers the id type from the Lark id prefix.
func ReceiveIDType(id string) string {
	switch {
	case strings.HasPrefix(id, "oc_"):
		return ReceiveIDTypeChatID
	case strings.HasPrefix(id, "ou_"):
		return ReceiveIDTypeOpenID
	case strings.HasPrefix(id, "on_"):
		return ReceiveIDTypeUnionID
	default:
		return ReceiveIDTypeUserID
	}
}
