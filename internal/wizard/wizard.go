// Package wizard drives the table reservation flow: date, then time, then
// table, then confirmation. Completed steps always form a prefix, so a later
// step can never be marked complete while an earlier one is not.
//
// A Wizard is owned by a single session and is not safe for concurrent use.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
)

type Step int

const (
	StepDate Step = iota + 1
	StepTime
	StepTable
	StepConfirm
)

// Steps is the number of steps, K.
const Steps = int(StepConfirm)

type State string

const (
	AwaitingDate     State = "AwaitingDate"
	AwaitingTime     State = "AwaitingTime"
	AwaitingResource State = "AwaitingResource"
	ReadyToSubmit    State = "ReadyToSubmit"
)

func (s Step) State() State {
	switch s {
	case StepTime:
		return AwaitingTime
	case StepTable:
		return AwaitingResource
	case StepConfirm:
		return ReadyToSubmit
	default:
		return AwaitingDate
	}
}

// Operating hours, inclusive at both ends.
const (
	OpenHour  = 10
	CloseHour = 20
)

const (
	MsgDateNotFuture = "Please choose a future date."
	MsgDateTooFar    = "Reservations open at most one year in advance."
	MsgOutsideHours  = "Please choose a time between 10:00 and 20:00."
	MsgTimePassed    = "That time has already passed today. Please choose a later time."
	MsgSubmitFailed  = "Could not complete the reservation. Please try again."
	MsgTableTaken    = "That table is no longer available. Please choose another one."
)

var (
	ErrStepLocked       = errors.New("wizard: step not reachable yet")
	ErrNotReady         = errors.New("wizard: not all steps are completed")
	ErrTableUnavailable = errors.New("wizard: table no longer available")
)

// ValidationError is a local input rejection. It never involves the network.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type Backend interface {
	ListTables(ctx context.Context, token string) ([]api.Table, error)
	CreateReservation(ctx context.Context, token string, req api.CreateReservationRequest) (api.Reservation, error)
}

type Wizard struct {
	backend Backend
	now     func() time.Time
	loc     *time.Location
	layout  string

	step Step
	// done counts completed steps from the start; step k is complete iff k <= done.
	done    int
	date    time.Time
	hour    int
	tableID int64

	tables []api.Table

	dateErr   string
	timeErr   string
	submitErr string

	confirmation *api.Reservation
}

type Option func(*Wizard)

func WithClock(now func() time.Time) Option { return func(w *Wizard) { w.now = now } }

func WithLocation(loc *time.Location) Option { return func(w *Wizard) { w.loc = loc } }

// WithLayout sets the time layout used for appointment_time.
func WithLayout(layout string) Option { return func(w *Wizard) { w.layout = layout } }

const DefaultLayout = "2006-1-2 15:00:00"

func New(backend Backend, opts ...Option) *Wizard {
	w := &Wizard{
		backend: backend,
		now:     time.Now,
		loc:     time.Local,
		layout:  DefaultLayout,
		step:    StepDate,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start loads the table list offered at the table step. It is called once
// per wizard session.
func (w *Wizard) Start(ctx context.Context, token string) error {
	tables, err := w.backend.ListTables(ctx, token)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	w.tables = tables
	return nil
}

func (w *Wizard) today() time.Time {
	return midnight(w.now().In(w.loc))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SelectDate accepts dates strictly after today and no more than one year ahead.
func (w *Wizard) SelectDate(d time.Time) error {
	today := w.today()
	day := midnight(d.In(w.loc))

	if !day.After(today) {
		return w.rejectDate(MsgDateNotFuture)
	}
	if day.After(today.AddDate(1, 0, 0)) {
		return w.rejectDate(MsgDateTooFar)
	}

	w.date = day
	w.hour = 0
	w.tableID = 0
	w.done = int(StepDate)
	w.step = StepTime
	w.dateErr, w.timeErr, w.submitErr = "", "", ""
	return nil
}

func (w *Wizard) rejectDate(msg string) error {
	w.dateErr = msg
	return &ValidationError{Step: StepDate, Message: msg}
}

// SelectTime accepts an hour within operating hours; for today it must also
// be later than the current hour.
func (w *Wizard) SelectTime(hour int) error {
	if w.done < int(StepDate) {
		return ErrStepLocked
	}
	if hour < OpenHour || hour > CloseHour {
		return w.rejectTime(MsgOutsideHours)
	}
	now := w.now().In(w.loc)
	if w.date.Equal(midnight(now)) && hour <= now.Hour() {
		return w.rejectTime(MsgTimePassed)
	}

	w.hour = hour
	w.tableID = 0
	w.done = int(StepTime)
	w.step = StepTable
	w.dateErr, w.timeErr, w.submitErr = "", "", ""
	return nil
}

func (w *Wizard) rejectTime(msg string) error {
	w.timeErr = msg
	return &ValidationError{Step: StepTime, Message: msg}
}

// SelectResource stores the table. Availability is checked again on Submit.
func (w *Wizard) SelectResource(tableID int64) error {
	if w.done < int(StepTime) {
		return ErrStepLocked
	}
	w.tableID = tableID
	w.done = int(StepTable)
	w.step = StepConfirm
	w.dateErr, w.timeErr, w.submitErr = "", "", ""
	return nil
}

// GoToStep moves the pointer without touching stored values.
func (w *Wizard) GoToStep(n Step) error {
	if n < StepDate || n > StepConfirm {
		return ErrStepLocked
	}
	if n != StepDate && w.done < int(n-1) {
		return ErrStepLocked
	}
	w.step = n
	return nil
}

// Submit makes exactly one reservation write. On success the selection is
// cleared and the created reservation is available from Confirmation.
func (w *Wizard) Submit(ctx context.Context, id auth.Identity) error {
	if w.done < int(StepTable) {
		return ErrNotReady
	}

	tables, err := w.backend.ListTables(ctx, id.AccessToken)
	if err != nil {
		w.submitErr = MsgSubmitFailed
		w.step = StepConfirm
		return fmt.Errorf("recheck tables: %w", err)
	}
	w.tables = tables
	if !available(tables, w.tableID) {
		w.step = StepConfirm
		w.submitErr = MsgTableTaken
		return ErrTableUnavailable
	}

	res, err := w.backend.CreateReservation(ctx, id.AccessToken, api.CreateReservationRequest{
		UserID:          id.UserID,
		TableID:         w.tableID,
		AppointmentTime: w.AppointmentTime(),
	})
	if err != nil {
		w.submitErr = MsgSubmitFailed
		w.step = StepConfirm
		return fmt.Errorf("create reservation: %w", err)
	}

	w.Reset()
	w.confirmation = &res
	return nil
}

func available(tables []api.Table, id int64) bool {
	for _, t := range tables {
		if t.ID == id {
			return t.Available()
		}
	}
	return false
}

// Reset discards the selection and every message. The table snapshot is kept.
func (w *Wizard) Reset() {
	w.step = StepDate
	w.done = 0
	w.date = time.Time{}
	w.hour = 0
	w.tableID = 0
	w.dateErr, w.timeErr, w.submitErr = "", "", ""
	w.confirmation = nil
}

// AppointmentTime formats the selection with the configured layout.
// It returns "" until the time step is complete.
func (w *Wizard) AppointmentTime() string {
	if w.done < int(StepTime) {
		return ""
	}
	y, m, d := w.date.Date()
	return time.Date(y, m, d, w.hour, 0, 0, 0, w.loc).Format(w.layout)
}

func (w *Wizard) Step() Step   { return w.step }
func (w *Wizard) State() State { return w.step.State() }

func (w *Wizard) Completed(s Step) bool {
	return s >= StepDate && int(s) <= w.done
}

// Date returns the chosen day at midnight, or false when unset.
func (w *Wizard) Date() (time.Time, bool) { return w.date, w.done >= int(StepDate) }

func (w *Wizard) Hour() (int, bool) { return w.hour, w.done >= int(StepTime) }

func (w *Wizard) TableID() (int64, bool) { return w.tableID, w.done >= int(StepTable) }

func (w *Wizard) Tables() []api.Table { return w.tables }

func (w *Wizard) DateError() string   { return w.dateErr }
func (w *Wizard) TimeError() string   { return w.timeErr }
func (w *Wizard) SubmitError() string { return w.submitErr }

// Confirmation returns the reservation created by the last successful Submit.
func (w *Wizard) Confirmation() *api.Reservation { return w.confirmation }

// Hours lists the selectable hours for the chosen date.
func (w *Wizard) Hours() []int {
	var out []int
	now := w.now().In(w.loc)
	sameDay := w.done >= int(StepDate) && w.date.Equal(midnight(now))
	for h := OpenHour; h <= CloseHour; h++ {
		if sameDay && h <= now.Hour() {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Bounds returns the first and last selectable dates.
func (w *Wizard) Bounds() (first, last time.Time) {
	today := w.today()
	return today.AddDate(0, 0, 1), today.AddDate(1, 0, 0)
}
