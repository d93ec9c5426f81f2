package transport

import "sync"

// Mock is an in-memory Adapter for tests. Ready and close callbacks are driven
// by the test through FireReady, FireClosed and Deliver.
type Mock struct {
	mu       sync.Mutex
	listener Listener

	Ready       bool
	Visible     bool
	Unavailable bool
	// AutoClose fires OnClosed synchronously from Hide.
	AutoClose bool

	Opens   int
	Hides   int
	Loaded  []string
	Sent    []string
	SendErr error
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

func (m *Mock) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrUnavailable
	}
	m.Opens++
	m.Visible = true
	return nil
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return ErrUnavailable
	}
	m.Loaded = append(m.Loaded, url)
	return nil
}

func (m *Mock) Send(payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.Unavailable:
		return ErrUnavailable
	case m.SendErr != nil:
		return m.SendErr
	case !m.Ready:
		return ErrNotReady
	}
	m.Sent = append(m.Sent, payload)
	return nil
}

func (m *Mock) Hide() error {
	m.mu.Lock()
	m.Hides++
	m.Visible = false
	l, auto := m.listener, m.AutoClose
	m.mu.Unlock()
	if auto && l != nil {
		l.OnClosed()
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.Unavailable = true
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnUnavailable(ErrUnavailable)
	}
	return nil
}

// FireReady marks the frontend ready and notifies the listener.
func (m *Mock) FireReady() {
	m.mu.Lock()
	m.Ready = true
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnReady()
	}
}

func (m *Mock) FireClosed() {
	m.mu.Lock()
	m.Visible = false
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnClosed()
	}
}

// Deliver pushes a raw inbound message as if the frontend posted it.
func (m *Mock) Deliver(raw string) {
	m.mu.Lock()
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnMessageReceived(raw)
	}
}

// SentCount and HideCount are safe to call concurrently with the bridge.
func (m *Mock) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func (m *Mock) HideCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Hides
}

func (m *Mock) LastSent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1]
}
