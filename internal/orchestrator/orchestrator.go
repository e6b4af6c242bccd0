// Package orchestrator drives one render job at a time: it submits the job,
// polls it until it settles, downloads the asset and keeps exactly one live
// resource handle for the viewer.
//
// Every submit starts a new session. Results produced by a session are only
// applied while that session is still current, so a superseded job can
// never reach the observable state.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/remotejob"
	"cosmos/internal/resource"
)

// DefaultPollInterval is the delay between two status polls.
const DefaultPollInterval = 1200 * time.Millisecond

// State is the orchestrator's position in the render lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateFetching   State = "fetching"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Status messages shown to the user.
const (
	MsgSelectSubject = "select a subject to render"
	MsgRequesting    = "requesting render..."
	MsgQueued        = "queued, processing..."
	MsgRequestFailed = "render request failed"
	MsgStatusFailed  = "status check failed"
	MsgFetchFailed   = "could not fetch the result"
	MsgComplete      = "render complete"
	MsgStopped       = "stopped"
)

type Config struct {
	PollInterval time.Duration
	MaxEvents    int
}

// Snapshot is a point-in-time copy of the orchestrator state.
type Snapshot struct {
	State     State             `json:"state"`
	Session   string            `json:"session,omitempty"`
	SubjectID int64             `json:"subject_id,omitempty"`
	Job       *models.RenderJob `json:"job,omitempty"`
	Message   string            `json:"message"`
	ErrorCode errors.Code       `json:"error_code,omitempty"`
	Handle    *resource.Handle  `json:"handle,omitempty"`
}

type session struct {
	id        string
	gen       uint64
	subjectID int64
	ctx       context.Context
	cancel    context.CancelFunc
}

// Orchestrator is the render job state machine.
type Orchestrator struct {
	cfg    Config
	client remotejob.Client
	store  *resource.Store
	log    *logger.Logger
	events *EventBus

	mu      sync.Mutex
	state   State
	sess    *session
	gen     uint64
	job     *models.RenderJob
	message string
	errCode errors.Code
	handle  resource.Handle
	closed  bool

	wg sync.WaitGroup
}

func New(cfg Config, client remotejob.Client, store *resource.Store, log *logger.Logger) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Orchestrator{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log.WithComponent("orchestrator"),
		events: NewEventBus(cfg.MaxEvents),
		state:  StateIdle,
	}
}

// Submit starts rendering subject, superseding any job still in flight.
// A nil subject is rejected without contacting the render service.
func (o *Orchestrator) Submit(subject *models.Subject) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errors.New(errors.CodeUnavailable, "orchestrator is closed")
	}

	if subject == nil || subject.ID <= 0 {
		// An active session keeps its own status message.
		if !o.activeLocked() {
			o.message = MsgSelectSubject
		}
		o.publishMessageLocked(EventTypeValidation, MsgSelectSubject)
		return errors.ValidationField("subject_id", MsgSelectSubject)
	}

	if prev := o.sess; prev != nil {
		prev.cancel()
		o.log.Debug("superseding session", "session", prev.id, "state", string(o.state))
		o.state = StateIdle
	}

	o.gen++
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:        uuid.NewString(),
		gen:       o.gen,
		subjectID: subject.ID,
		ctx:       ctx,
		cancel:    cancel,
	}
	o.sess = sess
	o.job = nil
	o.errCode = ""
	o.releaseLocked()
	o.transitionLocked(StateSubmitting, MsgRequesting, EventTypeStatus)

	o.wg.Add(1)
	go o.run(sess)
	return nil
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		State:     o.state,
		Message:   o.message,
		ErrorCode: o.errCode,
	}
	if o.sess != nil {
		snap.Session = o.sess.id
		snap.SubjectID = o.sess.subjectID
	}
	if o.job != nil {
		job := *o.job
		snap.Job = &job
	}
	if !o.handle.IsZero() {
		h := o.handle
		snap.Handle = &h
	}
	return snap
}

// Events returns status events with sequence greater than since.
func (o *Orchestrator) Events(since int64) []Event {
	return o.events.Since(since)
}

// Close cancels the pending poll, releases the live handle and waits for
// the session goroutine to exit or ctx to end. Further submits are
// rejected. Close is safe to call more than once.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		if o.sess != nil {
			o.sess.cancel()
			o.log.Debug("closing session", "session", o.sess.id, "state", string(o.state))
		}
		o.releaseLocked()
		o.transitionLocked(StateIdle, MsgStopped, EventTypeStatus)
		o.sess = nil
		o.job = nil
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.WrapWithCode(ctx.Err(), errors.CodeTimeout, "orchestrator.close", "session still running")
	}
}

func (o *Orchestrator) run(sess *session) {
	defer o.wg.Done()

	log := o.log.WithSession(sess.id)

	job, err := o.client.Submit(sess.ctx, sess.subjectID)
	if err != nil {
		o.fail(sess, err, MsgRequestFailed)
		return
	}

	if !o.apply(sess, func() {
		o.job = &job
		o.transitionLocked(StatePolling, MsgQueued, EventTypeStatus)
	}) {
		return
	}
	log = log.WithJobID(job.ID)

	if !o.poll(sess, job.ID) {
		return
	}

	asset, err := o.client.FetchAsset(sess.ctx, job.ID)
	if err != nil {
		o.fail(sess, err, MsgFetchFailed)
		return
	}

	o.apply(sess, func() {
		o.releaseLocked()
		o.handle = o.store.Acquire(asset.Data, asset.ContentType)
		o.transitionLocked(StateReady, MsgComplete, EventTypeResult)
		log.Info("render ready", "bytes", len(asset.Data), "token", o.handle.Token)
	})
}

// poll polls jobID until it settles. It reports true when the job is done
// and the session moved to Fetching.
func (o *Orchestrator) poll(sess *session, jobID int64) bool {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for first := true; ; first = false {
		if !first {
			if timer == nil {
				timer = time.NewTimer(o.cfg.PollInterval)
			} else {
				timer.Reset(o.cfg.PollInterval)
			}
			select {
			case <-sess.ctx.Done():
				return false
			case <-timer.C:
			}
		}

		if !o.isCurrent(sess) {
			return false
		}

		job, err := o.client.Poll(sess.ctx, jobID)
		if err != nil {
			o.fail(sess, err, MsgStatusFailed)
			return false
		}

		var fetch, stop bool
		applied := o.apply(sess, func() {
			o.job = &job
			msg := job.StatusMessage()

			switch job.Status {
			case models.JobDone:
				o.transitionLocked(StateFetching, msg, EventTypeStatus)
				fetch = true
			case models.JobFailed:
				err := errors.RemoteJobFailed(job.ID, msg)
				o.errCode = errors.GetCode(err)
				o.transitionLocked(StateFailed, msg, EventTypeError)
				o.log.WithSession(sess.id).Warn("render failed",
					"error", err.Error(),
					"code", string(o.errCode),
					"job_id", job.ID,
				)
				stop = true
			default:
				o.message = msg
				o.publishLocked(EventTypeStatus)
			}
		})
		if !applied || stop {
			return false
		}
		if fetch {
			return true
		}
	}
}

func (o *Orchestrator) fail(sess *session, err error, message string) {
	o.apply(sess, func() {
		o.errCode = errors.GetCode(err)
		o.transitionLocked(StateFailed, message, EventTypeError)
		o.log.WithSession(sess.id).Warn("render failed",
			"error", err.Error(),
			"code", string(o.errCode),
		)
	})
}

// apply runs fn under the lock if sess is still the current session.
func (o *Orchestrator) apply(sess *session, fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.sess != sess {
		o.log.Debug("discarding stale result", "session", sess.id, "gen", sess.gen)
		return false
	}
	fn()
	return true
}

// activeLocked reports whether a session is still working towards a result.
func (o *Orchestrator) activeLocked() bool {
	if o.sess == nil {
		return false
	}
	switch o.state {
	case StateSubmitting, StatePolling, StateFetching:
		return true
	}
	return false
}

func (o *Orchestrator) isCurrent(sess *session) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.closed && o.sess == sess
}

func (o *Orchestrator) releaseLocked() {
	if o.handle.IsZero() {
		return
	}
	if !o.store.Release(o.handle) {
		o.log.Warn("handle already released", "token", o.handle.Token)
	}
	o.handle = resource.Handle{}
}

func (o *Orchestrator) transitionLocked(to State, message string, typ EventType) {
	from := o.state
	o.state = to
	o.message = message
	o.log.Debug("state transition", "from", string(from), "to", string(to), "message", message)
	o.publishLocked(typ)
}

func (o *Orchestrator) publishLocked(typ EventType) {
	o.publishMessageLocked(typ, o.message)
}

func (o *Orchestrator) publishMessageLocked(typ EventType, message string) {
	ev := Event{
		Type:    typ,
		State:   o.state,
		Message: message,
	}
	if o.sess != nil {
		ev.Session = o.sess.id
	}
	if o.job != nil {
		ev.JobID = o.job.ID
		ev.JobStatus = o.job.Status
	}
	o.events.Publish(ev)
}
