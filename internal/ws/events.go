package ws

import (
	"encoding/json"
	"time"

	"tapearn/internal/domain"
)

// Event is the envelope of every server message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type BalancePayload struct {
	Coins            int64     `json:"coins"`
	Energy           int64     `json:"energy"`
	MaxEnergy        int64     `json:"max_energy"`
	TotalEarned      int64     `json:"total_earned"`
	LastEnergyUpdate time.Time `json:"last_energy_update"`
}

type WithdrawalPayload struct {
	ID        int64                   `json:"id"`
	Reference string                  `json:"reference"`
	Amount    int64                   `json:"amount"`
	Status    domain.WithdrawalStatus `json:"status"`
	AdminNote string                  `json:"admin_note,omitempty"`
}

func encode(typ string, data any) []byte {
	b, err := json.Marshal(Event{Type: typ, Data: data})
	if err != nil {
		// payloads are plain structs
		panic(err)
	}
	return b
}
