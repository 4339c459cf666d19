package telemetry

import (
	"sync"

	"github.com/gridscope/gridscope/core/model"
	coretelemetry "github.com/gridscope/gridscope/core/telemetry"
)

// MockPublisher records published messages for tests.
type MockPublisher struct {
	mu        sync.Mutex
	Estimates []model.GenerationEstimate
	Anomalies []model.Anomaly
	Err       error
	Closed    bool
}

func (m *MockPublisher) PublishEstimate(est model.GenerationEstimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Estimates = append(m.Estimates, est)
	return nil
}

func (m *MockPublisher) PublishAnomaly(a model.Anomaly) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Anomalies = append(m.Anomalies, a)
	return nil
}

func (m *MockPublisher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// Published returns copies of everything recorded so far.
func (m *MockPublisher) Published() ([]model.GenerationEstimate, []model.Anomaly) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ests := append([]model.GenerationEstimate(nil), m.Estimates...)
	anoms := append([]model.Anomaly(nil), m.Anomalies...)
	return ests, anoms
}

var _ coretelemetry.Publisher = (*MockPublisher)(nil)
