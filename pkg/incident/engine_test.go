package incident

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[model.Identity]model.ActiveRecord
	saveErr error
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[model.Identity]model.ActiveRecord)}
}

func (m *memoryStore) Initialise(context.Context) error { return nil }
func (m *memoryStore) Close() error                     { return nil }

func (m *memoryStore) ActiveExists(_ context.Context, id model.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *memoryStore) GetActive(_ context.Context, id model.Identity) (*model.ActiveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memoryStore) GetAllActives(context.Context) ([]model.ActiveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActiveRecord
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memoryStore) SaveActive(_ context.Context, rec model.ActiveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.records[rec.Identity]; !ok {
		m.records[rec.Identity] = rec
	}
	return nil
}

func (m *memoryStore) RemoveActive(_ context.Context, id model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

type capturingNotifier struct {
	mu        sync.Mutex
	incidents []model.Incident
	groups    [][]string
}

func (n *capturingNotifier) DeliverToGroups(_ context.Context, groups []string, inc model.Incident) {
	n.mu.Lock()
	n.incidents = append(n.incidents, inc)
	n.groups = append(n.groups, groups)
	n.mu.Unlock()
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.incidents)
}

func testEndpoint() model.Endpoint {
	return model.Endpoint{
		Identity: model.Identity{
			EnvironmentGroup: "prod",
			Environment:      "us-east",
			EndpointGroup:    "web",
			Endpoint:         "health",
		},
		URL:         "https://example.com/health",
		Expected:    "200",
		AlertGroups: []string{"default"},
	}
}

func TestHandleFailureOpensIncidentOnce(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	ep := testEndpoint()
	out := model.Outcome{Result: false, Message: model.MessageBad, Actual: "503"}

	require.NoError(t, engine.Handle(context.Background(), ep, out))
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "prod us-east web health expected 200, actual: 503", notifier.incidents[0].Message)
	assert.Equal(t, "result was BAD, actual: 503", notifier.incidents[0].PresentationMessage)
	assert.Equal(t, []string{"default"}, notifier.groups[0])

	rec, err := st.GetActive(context.Background(), ep.Identity)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, ep.URL, rec.URL)

	// The failure continues: state unchanged, nothing new delivered.
	require.NoError(t, engine.Handle(context.Background(), ep, out))
	assert.Equal(t, 1, notifier.count())
}

func TestHandleFailureWithoutActual(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	ep := testEndpoint()
	out := model.Outcome{Result: false, Message: model.MessageTimeout}

	require.NoError(t, engine.Handle(context.Background(), ep, out))
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "prod us-east web health expected 200, actual: TIMEOUT", notifier.incidents[0].Message)
	assert.Equal(t, "result was TIMEOUT", notifier.incidents[0].PresentationMessage)
}

func TestHandleThresholdFailureMessage(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	ep := testEndpoint()
	out := model.Outcome{Result: false, Message: model.MessageBad, Threshold: "time 1500ms greater than maximum 1000ms"}

	require.NoError(t, engine.Handle(context.Background(), ep, out))
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "prod us-east web health response time 1500ms greater than maximum 1000ms", notifier.incidents[0].Message)
	assert.Equal(t, "result was time 1500ms greater than maximum 1000ms", notifier.incidents[0].PresentationMessage)
}

func TestHandleSuccessWithoutActiveIsQuiet(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	out := model.Outcome{Result: true, Message: model.MessageOK}
	require.NoError(t, engine.Handle(context.Background(), testEndpoint(), out))
	assert.Zero(t, notifier.count())
}

func TestHandleRecoveryResolvesAndNotifies(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	ep := testEndpoint()
	openedAt := time.Now().Add(-90 * time.Second)
	st.records[ep.Identity] = model.ActiveRecord{
		Identity:  ep.Identity,
		Timestamp: float64(openedAt.UnixNano()) / float64(time.Second),
		Message:   "prod us-east web health expected 200, actual: 503",
		URL:       ep.URL,
	}

	out := model.Outcome{Result: true, Message: model.MessageOK}
	require.NoError(t, engine.Handle(context.Background(), ep, out))

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "prod us-east web health now OK after 1 minute, 30 seconds", notifier.incidents[0].Message)

	rec, err := st.GetActive(context.Background(), ep.Identity)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// A second success is a no-op.
	require.NoError(t, engine.Handle(context.Background(), ep, out))
	assert.Equal(t, 1, notifier.count())
}

func TestHandleStoreWriteFailureSuppressesNotification(t *testing.T) {
	st := newMemoryStore()
	st.saveErr = errors.New("disk full")
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	out := model.Outcome{Result: false, Message: model.MessageBad, Actual: "500"}
	err := engine.Handle(context.Background(), testEndpoint(), out)

	require.Error(t, err)
	assert.Zero(t, notifier.count())
}

func TestHandleStoreReadFailureAborts(t *testing.T) {
	st := newMemoryStore()
	st.getErr = errors.New("connection reset")
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	out := model.Outcome{Result: false, Message: model.MessageBad}
	require.Error(t, engine.Handle(context.Background(), testEndpoint(), out))
	assert.Zero(t, notifier.count())
}

func TestHandleConcurrentSameIdentityNotifiesOnce(t *testing.T) {
	st := newMemoryStore()
	notifier := &capturingNotifier{}
	engine := NewEngine(st, notifier, logger.NewDefault())

	ep := testEndpoint()
	out := model.Outcome{Result: false, Message: model.MessageBad, Actual: "503"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = engine.Handle(context.Background(), ep, out)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.count())
}
