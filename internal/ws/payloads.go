package ws

import (
	"encoding/json"

	"puglands_server/internal/domain"
)

const (
	// server - client
	MsgUserUpdate  = "user_update"
	MsgLandsUpdate = "lands_update"
)

type userUpdatePayload struct {
	Type string       `json:"type"`
	User *domain.User `json:"user"`
}

type landsUpdatePayload struct {
	Type  string         `json:"type"`
	Lands []*domain.Land `json:"lands"`
}

func marshalUserUpdate(u *domain.User) []byte {
	b, err := json.Marshal(userUpdatePayload{Type: MsgUserUpdate, User: u})
	if err != nil {
		return nil
	}
	return b
}

func marshalLandsUpdate(lands []*domain.Land) []byte {
	if lands == nil {
		lands = []*domain.Land{}
	}
	b, err := json.Marshal(landsUpdatePayload{Type: MsgLandsUpdate, Lands: lands})
	if err != nil {
		return nil
	}
	return b
}
