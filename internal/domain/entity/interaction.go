package entity

import "fmt"

// MessageRef locates a posted message so it can be edited later.
type MessageRef struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

// InteractionKey identifies the prompts posted to one department for one record.
type InteractionKey struct {
	RecordID   int64
	Department Department
}

func (k InteractionKey) String() string {
	return fmt.Sprintf("%d:%s", k.RecordID, k.Department)
}

// PendingInteraction holds every message posted for a key so they can all be
// invalidated once one recipient acts.
type PendingInteraction struct {
	RecordID   int64        `json:"record_id"`
	Department Department   `json:"department"`
	Messages   []MessageRef `json:"messages"`
}

// Key returns the lookup key of the interaction.
func (p PendingInteraction) Key() InteractionKey {
	return InteractionKey{RecordID: p.RecordID, Department: p.Department}
}
