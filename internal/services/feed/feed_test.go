package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTabParams(t *testing.T) {
	cases := []struct {
		tab, search string
		want        model.FeedQuery
	}{
		{"all", "", model.FeedQuery{Sort: "newest"}},
		{"myfeed", "", model.FeedQuery{Sort: "trending"}},
		{"wanted", "", model.FeedQuery{Status: "WANTED", Sort: "newest"}},
		{"missing", "", model.FeedQuery{Status: "MISSING", Sort: "newest"}},
		{"alert", "", model.FeedQuery{Status: "ALERT", Sort: "newest"}},
		{"appeal", "", model.FeedQuery{Search: "Appeal", Sort: "newest"}},
		{"appeal", "chain snatching", model.FeedQuery{Search: "chain snatching", Sort: "newest"}},
		{"critical", "", model.FeedQuery{Priority: "CRITICAL", Sort: "newest"}},
		{"rewards", "", model.FeedQuery{Priority: "REWARDS", Sort: "newest"}},
		{"popular", "", model.FeedQuery{Sort: "popular"}},
		{"trending", "x", model.FeedQuery{Search: "x", Sort: "trending"}},
		{"high", "", model.FeedQuery{Priority: "HIGH", Sort: "newest"}},
	}
	for _, tc := range cases {
		t.Run(tc.tab+"/"+tc.search, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, TabParams(tc.tab, tc.search)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterQuery_Offsets(t *testing.T) {
	q := Filter{Tab: "wanted", Category: "theft", Jurisdiction: "j1"}.Query(3, 10)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 30, q.Offset)
	assert.Equal(t, "theft", q.Category)
	assert.Equal(t, "j1", q.Jurisdiction)
}

// pagedLister 按 offset 返回预置数据，并记录每次请求。
type pagedLister struct {
	mu    sync.Mutex
	pages map[int][]model.Lead
	err   map[int]error
	calls []model.FeedQuery
}

func (f *pagedLister) ListPublicLeads(_ context.Context, q model.FeedQuery) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	page := q.Offset / q.Limit
	if err := f.err[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func leads(ids ...string) []model.Lead {
	out := make([]model.Lead, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Lead{ID: id, Title: "Lead " + id, Priority: "LOW"})
	}
	return out
}

func seqLeads(prefix string, n int) []model.Lead {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return leads(ids...)
}

func TestPaginator_ShortPageStops(t *testing.T) {
	src := &pagedLister{pages: map[int][]model.Lead{
		0: seqLeads("a", 10),
		1: seqLeads("b", 4),
	}}
	p := NewPaginator(src, 10, nil)
	ctx := context.Background()

	n, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.True(t, p.Snapshot().HasMore)

	n, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.False(t, p.Snapshot().HasMore)

	// 同一筛选状态下不再发请求
	n, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, src.calls, 2)
	assert.Equal(t, 10, src.calls[1].Offset)
}

func TestPaginator_DedupeLaterWins(t *testing.T) {
	first := seqLeads("a", 10)
	dup := first[3]
	dup.Title = "updated"
	src := &pagedLister{pages: map[int][]model.Lead{
		0: first,
		1: append([]model.Lead{dup}, leads("z")...),
	}}
	p := NewPaginator(src, 10, nil)
	ctx := context.Background()
	_, err := p.Next(ctx)
	require.NoError(t, err)
	n, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snap := p.Snapshot()
	require.Len(t, snap.Items, 11)
	assert.Equal(t, "updated", snap.Items[3].Title)
	assert.Equal(t, "z", snap.Items[10].ID)
}

func TestPaginator_APIErrorStops(t *testing.T) {
	src := &pagedLister{err: map[int]error{0: &leadsapi.APIError{Status: 500, Message: "boom"}}}
	p := NewPaginator(src, 10, nil)
	n, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, p.Snapshot().HasMore)
}

func TestPaginator_TransportErrorKeepsState(t *testing.T) {
	src := &pagedLister{err: map[int]error{0: errors.New("dial tcp: refused")}}
	p := NewPaginator(src, 10, nil)
	_, err := p.Next(context.Background())
	require.Error(t, err)
	snap := p.Snapshot()
	assert.True(t, snap.HasMore)
	assert.Zero(t, snap.Next)
}

func TestPaginator_ResetResumesFromZero(t *testing.T) {
	src := &pagedLister{pages: map[int][]model.Lead{0: leads("a")}}
	p := NewPaginator(src, 10, nil)
	ctx := context.Background()
	_, _ = p.Next(ctx)
	assert.False(t, p.Snapshot().HasMore)

	p.Reset(Filter{Tab: "wanted"})
	snap := p.Snapshot()
	assert.True(t, snap.HasMore)
	assert.Empty(t, snap.Items)

	_, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "WANTED", src.calls[1].Status)
	assert.Zero(t, src.calls[1].Offset)
}

// blockingLister 在 release 之前阻塞，用来模拟慢请求。
type blockingLister struct {
	started chan struct{}
	release chan struct{}
	result  []model.Lead
}

func (b *blockingLister) ListPublicLeads(ctx context.Context, _ model.FeedQuery) ([]model.Lead, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestPaginator_ResetDiscardsInflight(t *testing.T) {
	src := &blockingLister{started: make(chan struct{}), release: make(chan struct{}), result: leads("stale")}
	p := NewPaginator(src, 10, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Next(context.Background())
		done <- err
	}()
	<-src.started
	assert.True(t, p.Snapshot().Loading)

	// 第二个 Next 在途期间不发请求
	n, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	p.Reset(Filter{Search: "new"})
	require.NoError(t, <-done)

	snap := p.Snapshot()
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loading)
	assert.Equal(t, "new", snap.Filter.Search)
}

func TestSnapshot_Pinning(t *testing.T) {
	src := &pagedLister{pages: map[int][]model.Lead{0: {
		{ID: "1", Title: "Urgent", Priority: "CRITICAL", RewardAmount: "50000"},
		{ID: "2", Title: "Appeal for witnesses", Priority: "LOW"},
	}}}
	p := NewPaginator(src, 10, nil)
	_, _ = p.Next(context.Background())
	snap := p.Snapshot()
	assert.True(t, snap.Items[0].Pinned)
	assert.False(t, snap.Items[1].Pinned)
	assert.Equal(t, "50000", snap.Items[0].Reward)

	src.pages[0] = []model.Lead{{ID: "3", Title: "Routine", Priority: "LOW"}}
	p.Reset(Filter{})
	_, _ = p.Next(context.Background())
	assert.False(t, p.Snapshot().Items[0].Pinned)
}

func TestDebounce_EmitsLastValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan string)
	out := Debounce(ctx, in, 30*time.Millisecond)

	for _, v := range []string{"r", "ra", "rav", "ravi"} {
		in <- v
	}
	select {
	case got := <-out:
		assert.Equal(t, "ravi", got)
	case <-time.After(time.Second):
		t.Fatal("debounced value not emitted")
	}

	in <- "kumar"
	close(in)
	assert.Equal(t, "kumar", <-out)
	_, ok := <-out
	assert.False(t, ok)
}

func TestDebounce_CancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan string)
	out := Debounce(ctx, in, time.Hour)
	in <- "x"
	cancel()
	_, ok := <-out
	assert.False(t, ok)
}

func detailsJSON(t *testing.T, m map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestCards_WantedAndMissing(t *testing.T) {
	all := []model.Lead{
		{ID: "w1", Title: "Wanted: Ravi", Status: "WANTED", Priority: "CRITICAL", Details: detailsJSON(t, map[string]any{"name": "Ravi Kumar"})},
		{ID: "w2", Title: "Wanted: Sonu", Status: "WANTED", Priority: "HIGH", Location: "Rohini", ImageURL: "/u/2.jpg"},
		{ID: "m1", Title: "Missing: Asha", Status: "MISSING", Priority: "HIGH"},
		{ID: "m2", Title: "Child", Status: "SUBMITTED", NoticeType: "missing_person", Priority: "LOW", Details: detailsJSON(t, map[string]any{"risk": "EXTREME"})},
		{ID: "x", Title: "Alert", Status: "ALERT"},
	}

	wanted := Cards(all, BoardWanted)
	require.Len(t, wanted, 2)
	assert.Equal(t, "Ravi Kumar", wanted[0].Name)
	assert.Equal(t, "EXTREME", wanted[0].Risk)
	assert.True(t, wanted[0].Armed())
	assert.Equal(t, "Delhi NCR", wanted[0].Location)
	assert.Equal(t, "Unknown", wanted[0].Alias)
	assert.Equal(t, defaultPhoto, wanted[0].Image)
	assert.Equal(t, "Wanted: Sonu", wanted[1].Name)
	assert.Equal(t, "HIGH", wanted[1].Risk)
	assert.Equal(t, "Rohini", wanted[1].Location)

	missing := Cards(all, BoardMissing)
	require.Len(t, missing, 2)
	assert.Equal(t, []string{"m1", "m2"}, []string{missing[0].ID, missing[1].ID})

	assert.Len(t, FilterCards(wanted, BoardWanted, "ravi", "All"), 1)
	assert.Len(t, FilterCards(wanted, BoardWanted, "WANTED:", ""), 2)
	assert.Len(t, FilterCards(wanted, BoardWanted, "", "HIGH"), 1)
	assert.Len(t, FilterCards(missing, BoardMissing, "", "EXTREME"), 1)
}

func TestFilterCards_RiskOnlyOnMissingBoard(t *testing.T) {
	// CRITICAL 通缉但 details 里写了 risk=HIGH：按 HIGH 筛选通缉看板时不应命中
	wanted := Cards([]model.Lead{
		{ID: "w1", Status: "WANTED", Priority: "CRITICAL", Details: detailsJSON(t, map[string]any{"risk": "HIGH"})},
		{ID: "w2", Status: "WANTED", Priority: "HIGH"},
	}, BoardWanted)
	got := FilterCards(wanted, BoardWanted, "", "HIGH")
	require.Len(t, got, 1)
	assert.Equal(t, "w2", got[0].ID)

	missing := Cards([]model.Lead{
		{ID: "m1", Status: "MISSING", Priority: "LOW", Details: detailsJSON(t, map[string]any{"risk": "HIGH"})},
		{ID: "m2", Status: "MISSING", Priority: "LOW", Details: detailsJSON(t, map[string]any{"risk": "MODERATE"})},
	}, BoardMissing)
	got = FilterCards(missing, BoardMissing, "", "HIGH")
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestLoadBoard_RequestsFifty(t *testing.T) {
	src := &pagedLister{pages: map[int][]model.Lead{0: {{ID: "w", Status: "WANTED"}}}}
	cards, err := LoadBoard(context.Background(), src, BoardWanted)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, BoardLimit, src.calls[0].Limit)
}

func TestTicker_Order(t *testing.T) {
	var all []model.Lead
	for i := 0; i < 12; i++ {
		all = append(all, model.Lead{ID: fmt.Sprintf("p%d", i), Status: "WANTED", Priority: "LOW"})
	}
	all = append(all,
		model.Lead{ID: "reward", Status: "WANTED", Priority: "HIGH", RewardAmount: "10000"},
		model.Lead{ID: "crit", Status: "WANTED", Priority: "CRITICAL"},
		model.Lead{ID: "alert", Status: "ALERT", Priority: "CRITICAL"},
	)
	got := Ticker(all)
	require.Len(t, got, TickerSize)
	assert.Equal(t, "crit", got[0].ID)
	assert.Equal(t, "reward", got[1].ID)
	assert.Equal(t, "p0", got[2].ID)
}
