package app

import (
	"context"
	"sync"
	"time"
	"trenchwatch/clients/dexscreener"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"
	"trenchwatch/internal/store"
)

// MockMarketData is a mock implementation of MarketDataSource for testing.
type MockMarketData struct {
	mu     sync.Mutex
	quotes map[string]dexscreener.Quote
	errs   map[string]error
	calls  []string
}

func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		quotes: make(map[string]dexscreener.Quote),
		errs:   make(map[string]error),
	}
}

func (m *MockMarketData) SetQuote(ca string, q dexscreener.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.FetchedAt.IsZero() {
		q.FetchedAt = time.Now()
	}
	m.quotes[ca] = q
}

func (m *MockMarketData) SetError(ca string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[ca] = err
}

func (m *MockMarketData) Quote(_ context.Context, ca string) (dexscreener.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ca)
	if err, ok := m.errs[ca]; ok {
		return dexscreener.Quote{}, err
	}
	return m.quotes[ca], nil
}

func (m *MockMarketData) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockNotifier records sent alerts for assertions.
type MockNotifier struct {
	mu      sync.Mutex
	sent    []SentAlert
	sendErr error
}

type SentAlert struct {
	RecipientID string
	Alert       notifier.CoinAlert
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *MockNotifier) SendCoinAlert(recipientID string, alert notifier.CoinAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentAlert{RecipientID: recipientID, Alert: alert})
	return m.sendErr
}

func (m *MockNotifier) Close() error {
	return nil
}

func (m *MockNotifier) Sent() []SentAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentAlert, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockNotifier) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kinds []string
	for _, s := range m.sent {
		kinds = append(kinds, string(s.Alert.Kind))
	}
	return kinds
}

// MockPersistence keeps the dataset in memory.
type MockPersistence struct {
	mu      sync.Mutex
	dataset store.Dataset
	saves   int
	loadErr error
	saveErr error
}

func NewMockPersistence(ds store.Dataset) *MockPersistence {
	if ds == nil {
		ds = store.Dataset{}
	}
	return &MockPersistence{dataset: ds}
}

func (m *MockPersistence) Load() (store.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.dataset, nil
}

func (m *MockPersistence) Save(ds store.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.dataset = ds
	m.saves++
	return nil
}

func (m *MockPersistence) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// testConfig returns a config with fast timings for tests.
func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Monitor.PollInterval = 10 * time.Millisecond
	cfg.Monitor.CoinThrottle = 0
	return cfg
}

func fptr(v float64) *float64 {
	return &v
}
