package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trip-planner/internal/models"
	"trip-planner/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers PlanTrip from a queue of replies, or from byOrigin when
// the request's current location has an entry there. A reply with a non-nil
// gate blocks until the gate is closed or the context is cancelled.
type fakeClient struct {
	mu       sync.Mutex
	requests []models.TripRequest
	replies  []fakeReply
	byOrigin map[string]fakeReply
}

type fakeReply struct {
	gate   chan struct{}
	result *models.TripResult
	err    error
}

func (f *fakeClient) push(r fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
}

func (f *fakeClient) PlanTrip(ctx context.Context, req models.TripRequest) (*models.TripResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	r, keyed := f.byOrigin[req.CurrentLocation]
	if !keyed && len(f.replies) > 0 {
		r, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, &models.RequestError{Err: ctx.Err()}
		}
	}
	return r.result, r.err
}

func (f *fakeClient) ResolveAsset(ref string) string { return "https://api.example.com" + ref }

func (f *fakeClient) calls() []models.TripRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TripRequest(nil), f.requests...)
}

// fakeRecorder stores records in memory. A non-nil hold blocks Record until
// it is closed.
type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.TripRecord
	hold    chan struct{}
}

func (f *fakeRecorder) Record(_ context.Context, rec *models.TripRecord) error {
	if f.hold != nil {
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) all() []*models.TripRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.TripRecord(nil), f.records...)
}

type fakeMailer struct {
	to, subject, text, html string
	err                     error
}

func (f *fakeMailer) SendEmail(_ context.Context, to, subject, text, html string) error {
	f.to, f.subject, f.text, f.html = to, subject, text, html
	return f.err
}

func awaitResolved(t *testing.T, svc *Service, sid string, gen uint64) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := svc.Await(ctx, sid, gen)
	require.NoError(t, err)
	return st
}

func TestSubmitShowsLoadingUntilResolved(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{}
	client.push(fakeReply{gate: gate, result: sampleResult()})
	svc := NewService(client, nil, nil, nil)

	st := svc.Submit("s1", filledFields())
	assert.True(t, st.Loading)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Error)

	mid := svc.State("s1")
	assert.Equal(t, PhaseLoading, mid.Phase())
	assert.Nil(t, mid.Result)
	assert.Empty(t, mid.Error)

	close(gate)
	final := awaitResolved(t, svc, "s1", st.Generation)
	assert.False(t, final.Loading)
	assert.Empty(t, final.Error)
	assert.Equal(t, sampleResult(), final.Result)

	require.Len(t, client.calls(), 1)
	assert.Equal(t, 12.5, client.calls()[0].CycleUsed)
}

func TestSubmitFailureStoresDisplayMessage(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{err: &models.RequestError{StatusCode: 400, ServerMessage: "Invalid location"}})
	client.push(fakeReply{err: &models.RequestError{StatusCode: 502}})
	svc := NewService(client, nil, nil, nil)

	st := svc.Submit("s1", filledFields())
	st = awaitResolved(t, svc, "s1", st.Generation)
	assert.Equal(t, "Invalid location", st.Error)
	assert.Nil(t, st.Result)

	st = svc.Submit("s1", filledFields())
	assert.Empty(t, st.Error, "a new submission clears the previous error")
	st = awaitResolved(t, svc, "s1", st.Generation)
	assert.Equal(t, "An error occurred", st.Error)
}

func TestNewSubmissionSupersedesInFlightOne(t *testing.T) {
	firstGate := make(chan struct{})
	secondGate := make(chan struct{})
	client := &fakeClient{byOrigin: map[string]fakeReply{
		"Chicago, IL": {gate: firstGate, result: &models.TripResult{Compliance: "first"}},
		"Gary, IN":    {gate: secondGate, result: &models.TripResult{Compliance: "second"}},
	}}
	svc := NewService(client, nil, nil, nil)

	first := svc.Submit("s1", filledFields())
	retyped := filledFields()
	retyped.CurrentLocation = "Gary, IN"
	second := svc.Submit("s1", retyped)
	require.Greater(t, second.Generation, first.Generation)

	// The first request was cancelled; awaiting it returns the still-loading
	// state of the second.
	st := awaitResolved(t, svc, "s1", first.Generation)
	assert.True(t, st.Loading)
	assert.Equal(t, second.Generation, st.Generation)

	close(secondGate)
	st = awaitResolved(t, svc, "s1", second.Generation)
	require.NotNil(t, st.Result)
	assert.Equal(t, "second", st.Result.Compliance)

	close(firstGate)
	assert.Equal(t, "second", svc.State("s1").Result.Compliance)
}

func TestSessionsAreIsolated(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{result: sampleResult()})
	svc := NewService(client, nil, nil, nil)

	st := svc.Submit("a", filledFields())
	awaitResolved(t, svc, "a", st.Generation)

	assert.Equal(t, PhaseSucceeded, svc.State("a").Phase())
	assert.Equal(t, PhaseIdle, svc.State("b").Phase())
}

func TestUpdateField(t *testing.T) {
	svc := NewService(&fakeClient{}, nil, nil, nil)

	st, err := svc.UpdateField("s1", FieldDropoffLocation, "Duluth, MN")
	require.NoError(t, err)
	assert.Equal(t, "Duluth, MN", st.Fields.DropoffLocation)
	assert.Equal(t, "Duluth, MN", svc.State("s1").Fields.DropoffLocation)

	_, err = svc.UpdateField("s1", "destination", "x")
	assert.ErrorIs(t, err, models.ErrUnknownField)
}

func TestAwaitUnknownSession(t *testing.T) {
	svc := NewService(&fakeClient{}, nil, nil, nil)
	_, err := svc.Await(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAwaitHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	client := &fakeClient{}
	client.push(fakeReply{gate: gate, result: sampleResult()})
	svc := NewService(client, nil, nil, nil)

	st := svc.Submit("s1", filledFields())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := svc.Await(ctx, "s1", st.Generation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, got.Loading)
}

func TestResolvedSubmissionsAreRecorded(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{result: sampleResult()})
	client.push(fakeReply{err: &models.RequestError{StatusCode: 400, ServerMessage: "Invalid location"}})
	rec := &fakeRecorder{}
	svc := NewService(client, rec, nil, nil)

	st := svc.Submit("s1", filledFields())
	awaitResolved(t, svc, "s1", st.Generation)
	st = svc.Submit("s1", filledFields())
	awaitResolved(t, svc, "s1", st.Generation)
	require.NoError(t, svc.Close(context.Background()))

	records := rec.all()
	require.Len(t, records, 2)
	if !records[0].Succeeded {
		records[0], records[1] = records[1], records[0]
	}

	ok := records[0]
	assert.True(t, ok.Succeeded)
	assert.Equal(t, "s1", ok.SessionID)
	assert.Equal(t, "12.5", ok.CycleUsed)
	require.NotNil(t, ok.TotalDistance)
	assert.Equal(t, 123.456, *ok.TotalDistance)
	assert.NotEmpty(t, ok.Result)

	failed := records[1]
	assert.False(t, failed.Succeeded)
	assert.Equal(t, "Invalid location", failed.ErrorMessage)
	assert.Nil(t, failed.TotalDistance)
}

func TestAwaitDoesNotWaitForHistoryWrite(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{result: sampleResult()})
	rec := &fakeRecorder{hold: make(chan struct{})}
	svc := NewService(client, rec, nil, nil)

	st := svc.Submit("s1", filledFields())
	final := awaitResolved(t, svc, "s1", st.Generation)
	assert.False(t, final.Loading)
	assert.Equal(t, sampleResult(), final.Result)
	assert.Empty(t, rec.all(), "the history write is still held")

	close(rec.hold)
	require.NoError(t, svc.Close(context.Background()))
	assert.Len(t, rec.all(), 1)
}

func TestSupersededSubmissionIsNotRecorded(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{byOrigin: map[string]fakeReply{
		"Chicago, IL": {gate: gate, result: sampleResult()},
		"Gary, IN":    {result: sampleResult()},
	}}
	rec := &fakeRecorder{}
	svc := NewService(client, rec, nil, nil)

	first := svc.Submit("s1", filledFields())
	retyped := filledFields()
	retyped.CurrentLocation = "Gary, IN"
	second := svc.Submit("s1", retyped)
	awaitResolved(t, svc, "s1", second.Generation)
	close(gate)
	require.NoError(t, svc.Close(context.Background()))

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "Gary, IN", records[0].CurrentLocation)
	assert.NotEqual(t, first.Generation, second.Generation)
}

func TestSweepIdleDropsStaleSessionsAndCancelsRequests(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	client := &fakeClient{}
	client.push(fakeReply{gate: gate, result: sampleResult()})
	svc := NewService(client, nil, nil, nil)

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	svc.now = func() time.Time { return now }

	svc.Submit("stale", filledFields())
	now = start.Add(90 * time.Minute)
	_, err := svc.UpdateField("fresh", FieldCycleUsed, "3")
	require.NoError(t, err)

	now = start.Add(2*time.Hour + time.Minute)
	assert.Equal(t, 1, svc.SweepIdle(2*time.Hour))
	assert.Equal(t, PhaseIdle, svc.State("stale").Phase())
	assert.Equal(t, "3", svc.State("fresh").Fields.CycleUsed)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Close(ctx), "the swept request must have been cancelled")
}

func TestEmailSummary(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{result: sampleResult()})
	mailer := &fakeMailer{}
	tm, err := email.NewTemplateManager()
	require.NoError(t, err)
	svc := NewService(client, nil, mailer, tm)

	assert.ErrorIs(t, svc.EmailSummary(context.Background(), "s1", "driver@example.com"), models.ErrNoResult)

	st := svc.Submit("s1", filledFields())
	awaitResolved(t, svc, "s1", st.Generation)

	require.NoError(t, svc.EmailSummary(context.Background(), "s1", "driver@example.com"))
	assert.Equal(t, "driver@example.com", mailer.to)
	assert.Equal(t, "Your trip plan", mailer.subject)
	assert.Contains(t, mailer.html, "Milwaukee, WI → Minneapolis, MN")
	assert.Contains(t, mailer.html, "123.5")
	assert.Contains(t, mailer.html, "https://api.example.com/media/daily_logs/trip_4_day_1.pdf")
	assert.Contains(t, mailer.text, "1. Start at Chicago, IL")
}

func TestEmailSummaryDisabled(t *testing.T) {
	svc := NewService(&fakeClient{}, nil, nil, nil)
	assert.False(t, svc.EmailEnabled())
	assert.ErrorIs(t, svc.EmailSummary(context.Background(), "s1", "a@b.c"), models.ErrFeatureDisabled)
}

func TestEmailSummaryMailerFailure(t *testing.T) {
	client := &fakeClient{}
	client.push(fakeReply{result: sampleResult()})
	boom := errors.New("ses down")
	tm, err := email.NewTemplateManager()
	require.NoError(t, err)
	svc := NewService(client, nil, &fakeMailer{err: boom}, tm)

	st := svc.Submit("s1", filledFields())
	awaitResolved(t, svc, "s1", st.Generation)
	assert.ErrorIs(t, svc.EmailSummary(context.Background(), "s1", "a@b.c"), boom)
}
