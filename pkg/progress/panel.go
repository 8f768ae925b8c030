package progress

import (
	"context"
	"sync"
)

// InitialText is shown before the first step completes.
const InitialText = "Loading stadiums..."

// Status is what a status panel displays.
type Status struct {
	Text    string   `json:"text"`
	Visible bool     `json:"visible"`
	Done    bool     `json:"done"`
	Summary *Summary `json:"summary,omitempty"`
}

// Panel keeps the latest status for readers such as an HTTP handler.
// It is safe for concurrent use.
type Panel struct {
	mu     sync.RWMutex
	status Status
}

// NewPanel creates a visible panel with the initial loading text.
func NewPanel() *Panel {
	return &Panel{status: Status{Text: InitialText, Visible: true}}
}

// Step implements Sink.
func (p *Panel) Step(_ context.Context, u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Text = u.Text()
}

// Done implements Sink. The panel is hidden once the run has rendered.
func (p *Panel) Done(_ context.Context, s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Visible = false
	p.status.Done = true
	p.status.Summary = &s
}

// Status returns a copy of the current status.
func (p *Panel) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.status
	if st.Summary != nil {
		s := *st.Summary
		st.Summary = &s
	}
	return st
}
