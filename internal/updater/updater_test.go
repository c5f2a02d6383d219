package updater

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welcome-screen-backend/config"
	"welcome-screen-backend/internal/model"
	"welcome-screen-backend/internal/notification"
	"welcome-screen-backend/internal/occupancy"
	"welcome-screen-backend/internal/store"
)

const transitionCSV = "Confirmation code,Status,Guest name,Start date,End date\n" +
	"HM1,Confirmed,Leaving Person,06/07/2025,06/10/2025\n" +
	"HM2,Confirmed,Arriving Person,06/10/2025,06/14/2025\n" +
	"HM3,Confirmed,,06/20/2025,06/22/2025\n"

// mockFetcher is a mock implementation of the Fetcher interface.
type mockFetcher struct {
	FetchFunc func(ctx context.Context) (string, error)
}

func (m *mockFetcher) Fetch(ctx context.Context) (string, error) {
	return m.FetchFunc(ctx)
}

// mockPublisher records every published message.
type mockPublisher struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return m.err
}

// mockNotifier records dispatched alerts.
type mockNotifier struct {
	alerts []notification.Alert
}

func (m *mockNotifier) Dispatch(alert notification.Alert) {
	m.alerts = append(m.alerts, alert)
}

func testConfig() *config.Config {
	return &config.Config{
		Fetcher: config.FetcherConfig{Interval: time.Hour},
		Resolver: config.ResolverConfig{
			Cutoff:       11 * time.Hour,
			VacantName:   "Guest",
			City:         "Seattle",
			MessageLimit: 40,
		},
	}
}

func fixedAt(hh, mm int) occupancy.Clock {
	return occupancy.FixedClock(time.Date(2025, time.June, 10, hh, mm, 0, 0, time.UTC))
}

func staticFetcher(data string, err error) *mockFetcher {
	return &mockFetcher{FetchFunc: func(ctx context.Context) (string, error) { return data, err }}
}

func TestService_RunOnce_Download(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, pub, nil, fixedAt(10, 30))

	status, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SourceDownload, status.Source)
	assert.Equal(t, 2, status.Records)
	assert.Equal(t, 1, status.Skipped)
	require.NotNil(t, status.Resolution)
	assert.Equal(t, model.RuleCheckoutBeforeCutoff, status.Resolution.Rule)
	assert.Equal(t, "Leaving, Welcome to Seattle!", status.Message)
	assert.True(t, status.Published)
	assert.True(t, status.OK())
	assert.NotEmpty(t, status.RunID)
	assert.Equal(t, []string{"Leaving, Welcome to Seattle!"}, pub.messages)

	last, ok := svc.LastStatus()
	assert.True(t, ok)
	assert.Equal(t, status, last)
}

func TestService_RunOnce_AfterCutoff(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, pub, nil, fixedAt(11, 30))

	status, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Arriving, Welcome to Seattle!", status.Message)
	assert.Equal(t, model.RuleCheckinAfterCutoff, status.Resolution.Rule)
}

func TestService_RunOnce_FallsBackToSnapshot(t *testing.T) {
	ctx := context.Background()
	snap := store.NewFileStore(filepath.Join(t.TempDir(), "reservations.csv"))
	_, err := snap.Save(ctx, transitionCSV)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		fetcher Fetcher
	}{
		{name: "Download error", fetcher: staticFetcher("", errors.New("connection refused"))},
		{name: "Download missing columns", fetcher: staticFetcher("<html>login</html>\n", nil)},
		{name: "Download without usable rows", fetcher: staticFetcher("Start date,Guest name\n,\n", nil)},
		{name: "Fetching disabled", fetcher: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := NewService(testConfig(), tc.fetcher, snap, pub, nil, fixedAt(10, 0))

			status, err := svc.RunOnce(ctx)
			require.NoError(t, err)
			assert.Equal(t, model.SourceSnapshot, status.Source)
			assert.Equal(t, "Leaving, Welcome to Seattle!", status.Message)
		})
	}
}

func TestService_RunOnce_NoUsableRecords(t *testing.T) {
	pub := &mockPublisher{}
	snap := store.NewFileStore(filepath.Join(t.TempDir(), "missing.csv"))
	svc := NewService(testConfig(), staticFetcher("", errors.New("timeout")), snap, pub, nil, fixedAt(10, 0))

	status, err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrNoUsableRecords)
	assert.Equal(t, ErrNoUsableRecords.Error(), status.Error)
	assert.Equal(t, model.SourceNone, status.Source)
	assert.Nil(t, status.Resolution)
	assert.False(t, status.Published)
	assert.Empty(t, pub.messages, "nothing is published when no reservations are usable")
}

func TestService_RunOnce_VacantSentinel(t *testing.T) {
	cfg := testConfig()
	off := false
	cfg.Resolver.ShowReservationWhenVacant = &off

	pub := &mockPublisher{}
	data := "Start date,End date,Guest name\n07/01/2025,07/05/2025,Future Guest\n"
	svc := NewService(cfg, staticFetcher(data, nil), nil, pub, nil, fixedAt(10, 0))

	status, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Resolution.Vacant())
	assert.Equal(t, "Guest, Welcome to Seattle!", status.Message)
}

func TestService_RunOnce_PublishFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("401")}
	notifier := &mockNotifier{}
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, pub, notifier, fixedAt(10, 0))

	status, err := svc.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, status.Published)
	assert.Contains(t, status.Error, "failed to publish")
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "Welcome screen update failed", notifier.alerts[0].Title)
}

func TestService_RunOnce_AlertsOnChange(t *testing.T) {
	pub := &mockPublisher{}
	notifier := &mockNotifier{}
	clock := &mutableClock{now: time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)}
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, pub, notifier, clock)

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notifier.alerts, "the first publish is not a change")

	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notifier.alerts, "same message again is not a change")

	clock.now = clock.now.Add(90 * time.Minute)
	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "Welcome screen updated", notifier.alerts[0].Title)
	assert.Contains(t, notifier.alerts[0].Body, "Arriving, Welcome to Seattle!")
}

func TestService_Run_StopsOnCancel(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, pub, nil, fixedAt(10, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, ok := svc.LastStatus()
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestService_Preview(t *testing.T) {
	svc := NewService(testConfig(), nil, nil, &mockPublisher{}, nil, fixedAt(10, 0))

	first, msg := svc.Preview("  Maria Garcia ")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "Maria, Welcome to Seattle!", msg)

	_, ok := svc.LastStatus()
	assert.False(t, ok)
}

type mutableClock struct {
	now time.Time
}

func (c *mutableClock) Now() time.Time { return c.now }

func TestService_RunOnce_SavesUsableDownload(t *testing.T) {
	ctx := context.Background()
	snap := store.NewFileStore(filepath.Join(t.TempDir(), "reservations.csv"))
	fetcher := staticFetcher(transitionCSV, nil)
	svc := NewService(testConfig(), fetcher, snap, &mockPublisher{}, nil, fixedAt(10, 0))

	_, err := svc.RunOnce(ctx)
	require.NoError(t, err)

	saved, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, transitionCSV, saved)

	// A download without the expected columns leaves the snapshot alone.
	fetcher.FetchFunc = func(context.Context) (string, error) { return "<html>login</html>\n", nil }
	status, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SourceSnapshot, status.Source)

	saved, err = snap.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, transitionCSV, saved)
}

func TestService_OnUpdate(t *testing.T) {
	svc := NewService(testConfig(), staticFetcher(transitionCSV, nil), nil, &mockPublisher{}, nil, fixedAt(10, 0))

	var seen []model.SyncStatus
	svc.OnUpdate(func(s model.SyncStatus) { seen = append(seen, s) })

	ok, _ := svc.RunOnce(context.Background())
	svc.fetcher = staticFetcher("", errors.New("offline"))
	failed, err := svc.RunOnce(context.Background())
	require.Error(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, ok.RunID, seen[0].RunID)
	assert.Equal(t, failed.RunID, seen[1].RunID)
	assert.NotEmpty(t, seen[1].Error)
}
