package ws

import (
	"sync"

	"tapearn/internal/domain"
	"tapearn/internal/logger"
)

// Hub keeps every live connection grouped by account. A player may have
// several (phone and desktop); each one gets every event of its account.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.AccountID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.AccountID] = set
	}
	set[c] = struct{}{}
	Connections.Inc()
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *Client) bool {
	set, ok := h.clients[c.AccountID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.AccountID)
	}
	close(c.Send)
	Connections.Dec()
	return true
}

// SendTo queues msg for every connection of accountID and returns how many
// received it. A client whose buffer is full is dropped.
func (h *Hub) SendTo(accountID int64, msg []byte) int {
	h.mu.RLock()
	var sent int
	var slow []*Client
	for c := range h.clients[accountID] {
		select {
		case c.Send <- msg:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			if h.remove(c) {
				Dropped.Inc()
				logger.Warn("ws client dropped, send buffer full", "account_id", accountID)
			}
		}
		h.mu.Unlock()
	}
	return sent
}

// reply queues msg for c alone, if it is still registered.
func (h *Hub) reply(c *Client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.AccountID][c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close disconnects everyone, for shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.remove(c)
		}
	}
}

// PublishBalance sends the new balance and energy to the account's clients.
func (h *Hub) PublishBalance(acc domain.Account) {
	h.SendTo(acc.ID, encode(MsgBalance, BalancePayload{
		Coins:            acc.Coins,
		Energy:           acc.Energy,
		MaxEnergy:        acc.MaxEnergy,
		TotalEarned:      acc.TotalEarned,
		LastEnergyUpdate: acc.LastEnergyUpdate,
	}))
}

// PublishWithdrawal tells the owner about a withdrawal status change.
func (h *Hub) PublishWithdrawal(w domain.Withdrawal) {
	h.SendTo(w.AccountID, encode(MsgWithdrawal, WithdrawalPayload{
		ID:        w.ID,
		Reference: w.Reference,
		Amount:    w.Amount,
		Status:    w.Status,
		AdminNote: w.AdminNote,
	}))
}
