package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/wizard"
)

type stepLink struct {
	N         int
	Label     string
	Current   bool
	Done      bool
	Reachable bool
}

type reservePage struct {
	W      *wizard.Wizard
	Steps  []stepLink
	First  string
	Last   string
	Date   string
	Hour   int
	Hours  []int
	Tables []api.Table
	Table  int64
}

var stepLabels = map[wizard.Step]string{
	wizard.StepDate:    "Date",
	wizard.StepTime:    "Time",
	wizard.StepTable:   "Table",
	wizard.StepConfirm: "Confirm",
}

// wizardFor returns the session's wizard, creating and starting one if
// needed. A wizard whose start failed is not kept.
func (s *Server) wizardFor(r *http.Request, f *flows, ident auth.Identity) (*wizard.Wizard, error) {
	if f.wizard != nil {
		return f.wizard, nil
	}
	w := wizard.New(s.API,
		wizard.WithClock(s.Now),
		wizard.WithLocation(s.Location),
		wizard.WithLayout(s.Layout),
	)
	if err := w.Start(r.Context(), ident.AccessToken); err != nil {
		return nil, err
	}
	f.wizard = w
	return w, nil
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()

	wz, err := s.wizardFor(r, f, ident)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	first, last := wz.Bounds()
	page := reservePage{
		W:     wz,
		First: first.Format(time.DateOnly),
		Last:  last.Format(time.DateOnly),
		Hours: wz.Hours(),
	}
	for n := wizard.StepDate; n <= wizard.StepConfirm; n++ {
		page.Steps = append(page.Steps, stepLink{
			N:         int(n),
			Label:     stepLabels[n],
			Current:   wz.Step() == n,
			Done:      wz.Completed(n),
			Reachable: n == wizard.StepDate || wz.Completed(n-1),
		})
	}
	if d, ok := wz.Date(); ok {
		page.Date = d.Format(time.DateOnly)
	}
	if h, ok := wz.Hour(); ok {
		page.Hour = h
	}
	if id, ok := wz.TableID(); ok {
		page.Table = id
	}
	for _, t := range wz.Tables() {
		if t.Available() {
			page.Tables = append(page.Tables, t)
		}
	}

	data := tmplData{Title: "Reserve a table", Page: page}
	for _, msg := range []string{wz.DateError(), wz.TimeError(), wz.SubmitError()} {
		if msg != "" {
			data.Flash, data.FlashKind = msg, "error"
			break
		}
	}
	s.render(w, r, http.StatusOK, "templates/reserve.html", data)
}

// withWizard runs fn against the started wizard and redirects back to the
// reservation page.
func (s *Server) withWizard(w http.ResponseWriter, r *http.Request, fn func(wz *wizard.Wizard)) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ident := identity(r)
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()

	wz, err := s.wizardFor(r, f, ident)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fn(wz)
	http.Redirect(w, r, "/reserve", http.StatusSeeOther)
}

func (s *Server) handleReserveDate(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(wz *wizard.Wizard) {
		d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(r.FormValue("date")), s.Location)
		if err != nil {
			setFlash(w, "error", wizard.MsgDateNotFuture)
			return
		}
		_ = wz.SelectDate(d)
	})
}

func (s *Server) handleReserveTime(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(wz *wizard.Wizard) {
		h, ok := formInt(r, "hour")
		if !ok {
			setFlash(w, "error", wizard.MsgOutsideHours)
			return
		}
		_ = wz.SelectTime(h)
	})
}

func (s *Server) handleReserveTable(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(wz *wizard.Wizard) {
		_ = wz.SelectResource(formInt64(r, "table_id"))
	})
}

func (s *Server) handleReserveStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.withWizard(w, r, func(wz *wizard.Wizard) {
		_ = wz.GoToStep(wizard.Step(n))
	})
}

func (s *Server) handleReserveSubmit(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()

	wz, err := s.wizardFor(r, f, ident)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	appointment := wz.AppointmentTime()
	if err := wz.Submit(r.Context(), ident); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
		if !errors.Is(err, wizard.ErrNotReady) && !errors.Is(err, wizard.ErrTableUnavailable) {
			s.Logger.Error("create reservation failed", "user_id", ident.UserID, "error", err)
		}
		http.Redirect(w, r, "/reserve", http.StatusSeeOther)
		return
	}

	res := wz.Confirmation()
	s.Events.ReservationCreated(r.Context(), *res)
	f.wizard = nil
	s.redirect(w, r, "/reservations", "success",
		fmt.Sprintf("Reservation #%d confirmed for table %d at %s.", res.ID, res.TableID, appointment))
}
