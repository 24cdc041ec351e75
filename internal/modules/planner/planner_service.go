package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"trip-planner/internal/models"
	"trip-planner/pkg/email"
	"trip-planner/pkg/utils"

	"github.com/sirupsen/logrus"
)

const (
	historyWriteTimeout = 5 * time.Second
	summarySubject      = "Your trip plan"
)

// TripRecorder stores resolved submissions. history.Service satisfies it.
type TripRecorder interface {
	Record(ctx context.Context, rec *models.TripRecord) error
}

// ServiceInterface is the per-session trip workflow.
type ServiceInterface interface {
	State(sessionID string) State
	UpdateField(sessionID, name, value string) (State, error)
	// Submit starts a submission and returns the loading state immediately.
	Submit(sessionID string, fields FormFields) State
	// Await blocks until the given generation is resolved or superseded.
	Await(ctx context.Context, sessionID string, generation uint64) (State, error)
	EmailSummary(ctx context.Context, sessionID, to string) error
	EmailEnabled() bool
	ResolveAsset(ref string) string
	SweepIdle(maxIdle time.Duration) int
}

type session struct {
	state    State
	cancel   context.CancelFunc // cancels the in-flight request, if any
	done     chan struct{}      // closed when the current generation resolves
	lastSeen time.Time
}

// Service keeps one workflow State per session and runs submissions in the
// background. All transitions go through Reduce under mu.
type Service struct {
	client    ClientInterface
	recorder  TripRecorder          // nil when history is disabled
	mailer    email.ServiceInterface // nil when e-mail is disabled
	templates *email.TemplateManager

	mu       sync.Mutex
	sessions map[string]*session

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewService wires the workflow. recorder and mailer may be nil.
func NewService(client ClientInterface, recorder TripRecorder, mailer email.ServiceInterface, templates *email.TemplateManager) *Service {
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		client:    client,
		recorder:  recorder,
		mailer:    mailer,
		templates: templates,
		sessions:  make(map[string]*session),
		baseCtx:   ctx,
		stop:      stop,
		now:       time.Now,
	}
}

// lookup returns the session, creating it if needed. Caller holds mu.
func (s *Service) lookup(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.lastSeen = s.now()
	return sess
}

func (s *Service) State(sessionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return State{}
	}
	sess.lastSeen = s.now()
	return sess.state
}

func (s *Service) UpdateField(sessionID, name, value string) (State, error) {
	if _, ok := (FormFields{}).With(name, value); !ok {
		return State{}, fmt.Errorf("planner.UpdateField %q: %w", name, models.ErrUnknownField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(sessionID)
	sess.state = Reduce(sess.state, FieldChanged{Name: name, Value: value})
	return sess.state, nil
}

func (s *Service) Submit(sessionID string, fields FormFields) State {
	s.mu.Lock()
	sess := s.lookup(sessionID)
	if sess.cancel != nil {
		sess.cancel()
	}

	st := sess.state
	for _, f := range []FieldChanged{
		{Name: FieldCurrentLocation, Value: fields.CurrentLocation},
		{Name: FieldPickupLocation, Value: fields.PickupLocation},
		{Name: FieldDropoffLocation, Value: fields.DropoffLocation},
		{Name: FieldCycleUsed, Value: fields.CycleUsed},
	} {
		st = Reduce(st, f)
	}
	gen := st.Generation + 1
	st = Reduce(st, SubmitStarted{Generation: gen})

	ctx, cancel := context.WithCancel(s.baseCtx)
	done := make(chan struct{})
	sess.state = st
	sess.cancel = cancel
	sess.done = done
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, sessionID, gen, st.Fields, done)
	return st
}

// run resolves one generation. done is closed as soon as the state settles so
// waiters never sit behind the history write.
func (s *Service) run(ctx context.Context, sessionID string, gen uint64, fields FormFields, done chan struct{}) {
	defer s.wg.Done()

	log := utils.Logger.WithFields(logrus.Fields{"session": sessionID, "generation": gen})

	var result *models.TripResult
	req, err := fields.TripRequest()
	if err == nil {
		result, err = s.client.PlanTrip(ctx, req)
	}

	var ev Event
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("Trip request cancelled")
		} else {
			log.WithError(err).Warn("Trip request failed")
		}
		ev = SubmitFailed{Generation: gen, Message: models.DisplayMessage(err)}
	} else {
		ev = SubmitSucceeded{Generation: gen, Result: result}
	}

	resolved, ok := s.resolve(sessionID, gen, ev)
	close(done)
	if !ok {
		log.Debug("Discarding superseded trip response")
		return
	}
	s.record(sessionID, resolved)
}

// resolve applies a completion event. ok is false when the event belonged to
// a superseded submission or the session is gone.
func (s *Service) resolve(sessionID string, gen uint64, ev Event) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[sessionID]
	if !exists || !sess.state.Loading || sess.state.Generation != gen {
		return State{}, false
	}
	sess.state = Reduce(sess.state, ev)
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	return sess.state, true
}

func (s *Service) record(sessionID string, st State) {
	if s.recorder == nil {
		return
	}

	rec := &models.TripRecord{
		SessionID:       sessionID,
		CurrentLocation: st.Fields.CurrentLocation,
		PickupLocation:  st.Fields.PickupLocation,
		DropoffLocation: st.Fields.DropoffLocation,
		CycleUsed:       st.Fields.CycleUsed,
		Succeeded:       st.Result != nil,
		ErrorMessage:    st.Error,
	}
	if r := st.Result; r != nil {
		dist, total := r.TotalDistance, r.TotalTime
		rec.TotalDistance = &dist
		rec.TotalTime = &total
		rec.Compliance = r.Compliance
		if raw, err := json.Marshal(r); err == nil {
			rec.Result = raw
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, rec); err != nil {
		utils.Logger.WithError(err).WithField("session", sessionID).Error("Failed to record trip history")
	}
}

func (s *Service) Await(ctx context.Context, sessionID string, generation uint64) (State, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return State{}, fmt.Errorf("planner.Await: session %q: %w", sessionID, models.ErrNotFound)
	}
	if !sess.state.Loading || sess.state.Generation != generation {
		st := sess.state
		s.mu.Unlock()
		return st, nil
	}
	done := sess.done
	s.mu.Unlock()

	select {
	case <-done:
		return s.State(sessionID), nil
	case <-ctx.Done():
		return s.State(sessionID), ctx.Err()
	}
}

func (s *Service) EmailEnabled() bool { return s.mailer != nil && s.templates != nil }

// EmailSummary sends the session's displayed result to the given address.
func (s *Service) EmailSummary(ctx context.Context, sessionID, to string) error {
	if !s.EmailEnabled() {
		return models.ErrFeatureDisabled
	}

	st := s.State(sessionID)
	if st.Loading || st.Result == nil {
		return models.ErrNoResult
	}

	view := BuildResultView(st.Result, s.client.ResolveAsset)
	data := email.TripSummaryData{
		Route:         st.Fields.PickupLocation + " → " + st.Fields.DropoffLocation,
		Instructions:  st.Result.RouteInstructions,
		TotalDistance: view.TotalDistance,
		TotalTime:     view.TotalTime,
		Compliance:    view.Compliance,
		Violation:     view.Violation,
	}
	urls := make(map[int]string, len(view.Downloads))
	for _, d := range view.Downloads {
		urls[d.Day] = d.URL
	}
	for _, card := range view.LogCards {
		data.Days = append(data.Days, email.DayLine{
			Day:       card.Day,
			Distance:  card.Distance,
			DriveTime: card.DriveTime,
			TotalTime: card.TotalTime,
			PDFURL:    urls[card.Day],
		})
	}

	htmlBody, textBody, err := s.templates.GenerateTripSummaryEmail(data)
	if err != nil {
		return fmt.Errorf("planner.EmailSummary: %w", err)
	}
	if err := s.mailer.SendEmail(ctx, to, summarySubject, textBody, htmlBody); err != nil {
		return fmt.Errorf("planner.EmailSummary: %w", err)
	}
	return nil
}

func (s *Service) ResolveAsset(ref string) string { return s.client.ResolveAsset(ref) }

// SweepIdle drops sessions not seen for longer than maxIdle, cancelling their
// in-flight requests. It returns how many sessions were dropped.
func (s *Service) SweepIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) {
			continue
		}
		if sess.cancel != nil {
			sess.cancel()
		}
		delete(s.sessions, id)
		dropped++
	}
	return dropped
}

// Close cancels every in-flight request and waits for the workers to exit.
func (s *Service) Close(ctx context.Context) error {
	s.stop()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return errors.New("planner.Close: timed out waiting for in-flight requests")
	}
}
