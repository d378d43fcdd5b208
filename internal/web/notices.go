package web

import "sync"

// Notices carries the pending user-facing messages between a redirect and
// the next page render. One error and one success slot, last write wins,
// consumed on read.
type Notices struct {
	mu      sync.Mutex
	errMsg  string
	okMsg   string
}

func NewNotices() *Notices {
	return &Notices{}
}

func (n *Notices) SetError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errMsg = msg
}

func (n *Notices) SetSuccess(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.okMsg = msg
}

// Take returns and clears both pending messages.
func (n *Notices) Take() (errMsg, okMsg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	errMsg, okMsg = n.errMsg, n.okMsg
	n.errMsg, n.okMsg = "", ""
	return errMsg, okMsg
}

// Clear drops any pending messages without returning them.
func (n *Notices) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errMsg, n.okMsg = "", ""
}
