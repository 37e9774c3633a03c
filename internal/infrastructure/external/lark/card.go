package lark

import (
	"encoding/json"
	"fmt"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Card is the subset of the interactive message card schema the bot sends.
type Card struct {
	Config   CardConfig    `json:"config"`
	Elements []interface{} `json:"elements"`
}

// CardConfig holds card-level flags. UpdateMulti lets one patch update the
// card for every viewer.
type CardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
	UpdateMulti    bool `json:"update_multi"`
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardDiv struct {
	Tag  string   `json:"tag"`
	Text cardText `json:"text"`
}

type cardAction struct {
	Tag     string       `json:"tag"`
	Actions []cardButton `json:"actions"`
}

type cardButton struct {
	Tag   string                 `json:"tag"`
	Text  cardText               `json:"text"`
	Type  string                 `json:"type"`
	Value map[string]interface{} `json:"value"`
}

// BuildCard renders text and buttons as card JSON. Buttons carry their
// callback as the value object returned on click.
func BuildCard(text string, buttons []port.Button) (string, error) {
	card := Card{
		Config:   CardConfig{WideScreenMode: true, UpdateMulti: true},
		Elements: []interface{}{cardDiv{Tag: "div", Text: cardText{Tag: "plain_text", Content: text}}},
	}

	if len(buttons) > 0 {
		action := cardAction{Tag: "action"}
		for i, b := range buttons {
			value, err := EncodeCallback(b.Callback)
			if err != nil {
				return "", err
			}
			action.Actions = append(action.Actions, cardButton{
				Tag:   "button",
				Text:  cardText{Tag: "plain_text", Content: b.Label},
				Type:  buttonType(b.Callback, i),
				Value: value,
			})
		}
		card.Elements = append(card.Elements, action)
	}

	data, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("failed to marshal card: %w", err)
	}
	return string(data), nil
}

func buttonType(cb port.Callback, i int) string {
	switch cb.Action {
	case entity.ActionApprove, entity.ActionPay:
		return "primary"
	case entity.ActionReject:
		return "danger"
	}
	if i == 0 {
		return "primary"
	}
	return "default"
}

// EncodeCallback converts a callback into a card button value.
func EncodeCallback(cb port.Callback) (map[string]interface{}, error) {
	data, err := json.Marshal(cb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal callback: %w", err)
	}
	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to convert callback: %w", err)
	}
	return value, nil
}

// DecodeCallback reads a button value back into a callback.
func DecodeCallback(value map[string]interface{}) (port.Callback, error) {
	var cb port.Callback
	data, err := json.Marshal(value)
	if err != nil {
		return cb, fmt.Errorf("%w: bad button value: %v", entity.ErrValidation, err)
	}
	if err := json.Unmarshal(data, &cb); err != nil {
		return cb, fmt.Errorf("%w: bad button value: %v", entity.ErrValidation, err)
	}
	if cb.Kind == "" {
		return cb, fmt.Errorf("%w: button value has no kind", entity.ErrValidation)
	}
	return cb, nil
}

// textContent encodes a plain text message body.
func textContent(text string) (string, error) {
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal text: %w", err)
	}
	return string(data), nil
}
