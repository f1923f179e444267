// Package panel is the terminal mining panel: labels, a thread slider, the
// start/stop button, two text charts and the wallet passphrase modal.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	tea "github.com/charmbracelet/bubbletea"
)

type StateMsg struct{ State types.MiningState }

type StatsMsg struct{ Stats types.StatsSnapshot }

type ChartsMsg struct{ Charts types.Charts }

type errMsg struct{ err error }

type promptResult struct {
	passphrase string
	err        error
}

type passphraseRequestMsg struct {
	reply chan promptResult
}

// Bridge forwards miner publications and passphrase requests into a running
// bubbletea program. Until a program is attached everything is dropped and
// passphrase requests are declined.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) Attach(p *tea.Program) {
	b.attach(p.Send)
}

func (b *Bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) post(msg tea.Msg) bool {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

func (b *Bridge) ShowState(st types.MiningState)  { b.post(StateMsg{st}) }
func (b *Bridge) ShowStats(s types.StatsSnapshot) { b.post(StatsMsg{s}) }
func (b *Bridge) ShowCharts(c types.Charts)       { b.post(ChartsMsg{c}) }

// Passphrase opens the modal and blocks until the operator submits or
// cancels it.
func (b *Bridge) Passphrase(ctx context.Context) (string, error) {
	reply := make(chan promptResult, 1)
	if !b.post(passphraseRequestMsg{reply: reply}) {
		return "", fmt.Errorf("no terminal attached: %w", mining.ErrUnlockDeclined)
	}
	select {
	case res := <-reply:
		return res.passphrase, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
