package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{0, 0},
		{1, 0},
		{30, 0},
		{31, 1},
		{60, 1},
		{61, 2},
		{90, 2},
		{91, 3},
		{365, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketIndex(tt.days), "days=%d", tt.days)
	}
}

func TestAgingBuckets(t *testing.T) {
	buckets := AgingBuckets()
	require.Len(t, buckets, 4)

	// Labels line up with BucketIndex ranges.
	assert.Equal(t, "0-30", buckets[BucketIndex(15)].Label)
	assert.Equal(t, "31-60", buckets[BucketIndex(45)].Label)
	assert.Equal(t, "61-90", buckets[BucketIndex(75)].Label)
	assert.Equal(t, "90+", buckets[BucketIndex(120)].Label)

	// The last bucket is open-ended.
	assert.Equal(t, -1, buckets[3].ToDays)
}

// fakeROManager satisfies tx.ReadOnlyManager and counts read-only scopes.
type fakeROManager struct {
	readOnlyCalls int
}

func (m *fakeROManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *fakeROManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnlyCalls++
	return fn(ctx)
}

type recordingRepo struct {
	dashboardFrom time.Time
	dashboardTo   time.Time
}

func (r *recordingRepo) PortfolioSummary(ctx context.Context, f Filter, asOf time.Time) (*PortfolioSummary, error) {
	return &PortfolioSummary{AsOf: asOf}, nil
}

func (r *recordingRepo) Aging(ctx context.Context, f Filter, asOf time.Time) ([]AgingBucket, error) {
	return AgingBuckets(), nil
}

func (r *recordingRepo) ClientAccounts(ctx context.Context, f Filter, asOf time.Time) ([]ClientAccount, error) {
	return nil, nil
}

func (r *recordingRepo) CollectionsDashboard(ctx context.Context, from, to time.Time) (*CollectionsDashboard, error) {
	r.dashboardFrom = from
	r.dashboardTo = to
	return &CollectionsDashboard{From: from, To: to}, nil
}

func TestDashboardWindow(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo, &fakeROManager{})

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// Swapped bounds are normalized rather than rejected.
	_, err := svc.Dashboard(context.Background(), to, from)
	require.NoError(t, err)
	assert.Equal(t, from, repo.dashboardFrom)
	assert.Equal(t, to, repo.dashboardTo)
}

func TestPortfolioUsesClock(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo, &fakeROManager{})
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return asOf })

	summary, err := svc.Portfolio(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, asOf, summary.AsOf)
}

func TestViewsRunReadOnly(t *testing.T) {
	repo := &recordingRepo{}
	txm := &fakeROManager{}
	svc := NewService(repo, txm)
	ctx := context.Background()

	_, err := svc.Portfolio(ctx, Filter{})
	require.NoError(t, err)
	_, err = svc.Aging(ctx, Filter{})
	require.NoError(t, err)
	_, err = svc.Accounts(ctx, Filter{})
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 4, txm.readOnlyCalls)
}
