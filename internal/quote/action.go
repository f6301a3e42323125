package quote

import (
	"encoding/json"
	"fmt"
)

// Action type names used by the JSON envelope.
const (
	ActionSetClient     = "set_client"
	ActionSetConditions = "set_conditions"
	ActionAddItem       = "add_item"
	ActionEditItem      = "edit_item"
	ActionCancelEdit    = "cancel_edit"
	ActionUpdateItem    = "update_item"
	ActionRemoveItem    = "remove_item"
	ActionSetDiscount   = "set_discount"
	ActionLoadQuote     = "load_quote"
)

type envelope struct {
	Type string `json:"type"`
}

// DecodeAction decodes an action from its JSON envelope, e.g.
//
//	{"type": "add_item", "item": {"name": "Mesa", "quantity": 1, "unit_price": 400}}
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	var a Action
	switch env.Type {
	case ActionSetClient:
		a = &SetClient{}
	case ActionSetConditions:
		a = &SetConditions{}
	case ActionAddItem:
		a = &AddItem{}
	case ActionEditItem:
		a = &EditItem{}
	case ActionCancelEdit:
		return CancelEdit{}, nil
	case ActionUpdateItem:
		a = &UpdateItem{}
	case ActionRemoveItem:
		a = &RemoveItem{}
	case ActionSetDiscount:
		a = &SetDiscount{}
	case ActionLoadQuote:
		a = &LoadQuote{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}

	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", env.Type, err)
	}
	return deref(a), nil
}

func deref(a Action) Action {
	switch v := a.(type) {
	case *SetClient:
		return *v
	case *SetConditions:
		return *v
	case *AddItem:
		return *v
	case *EditItem:
		return *v
	case *UpdateItem:
		return *v
	case *RemoveItem:
		return *v
	case *SetDiscount:
		return *v
	case *LoadQuote:
		return *v
	}
	return a
}
