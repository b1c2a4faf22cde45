package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/directory"
	"github.com/carebook/appointment-scheduling/internal/redisclient"
)

var (
	ErrPastDate            = errors.New("appointment date must be in the future")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrOutsideAvailability = errors.New("doctor is not available at this time")
	ErrStoreUnavailable    = errors.New("store unavailable, retry later")
)

type Service struct {
	repo         Repository
	locker       redisclient.Locker
	dir          directory.Lookup
	loc          *time.Location
	storeTimeout time.Duration
	log          zerolog.Logger

	now func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, dir directory.Lookup, cfg config.Config, log zerolog.Logger) (*Service, error) {
	loc, err := cfg.ClinicLocation()
	if err != nil {
		return nil, fmt.Errorf("load clinic location: %w", err)
	}

	return &Service{
		repo:         repo,
		locker:       locker,
		dir:          dir,
		loc:          loc,
		storeTimeout: cfg.StoreTimeout,
		log:          log,
		now:          time.Now,
	}, nil
}

// Book admits a new appointment if the doctor is available at the candidate
// instant and no active appointment holds the same slot. The conflict check
// runs twice: once up front to fail fast, and again inside a lock scoped to
// the (doctor, instant) pair so concurrent requests for the same slot cannot
// both pass it. The loser of a race gets ErrSlotTaken; retrying the same
// inputs after a success re-detects the conflict and rejects again.
func (s *Service) Book(ctx context.Context, doctorID, patientID int64, at time.Time, notes *string) (*Appointment, error) {
	if !at.After(s.now().UTC()) {
		return nil, ErrPastDate
	}

	doctor, err := s.lookupDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	windows := ParseWindows(doctor.AvailableTimeslots)
	if !IsAvailable(windows, at, s.loc) {
		return nil, ErrOutsideAvailability
	}

	conflict, err := s.hasConflict(ctx, doctorID, at)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrSlotTaken
	}

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, doctorID, at, func(lockCtx context.Context) error {
		conflict, err := s.hasConflict(lockCtx, doctorID, at)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}

		appt := &Appointment{
			DoctorID:        doctorID,
			PatientID:       patientID,
			AppointmentDate: at,
			Notes:           notes,
			Status:          StatusPending,
		}

		storeCtx, cancel := context.WithTimeout(lockCtx, s.storeTimeout)
		defer cancel()

		created, err = s.repo.Create(storeCtx, appt)
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return ErrSlotTaken
			}
			return s.storeErr("create appointment", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", created.ID).
		Int64("doctor_id", doctorID).
		Int64("patient_id", patientID).
		Time("appointment_date", at).
		Msg("appointment booked")

	return created, nil
}

// UpdateStatus applies a lifecycle transition on behalf of an actor. A
// same-state update is a no-op. The write is a single-row compare-and-set;
// losing that race surfaces as ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id int64, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	appt, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}

	// Same-state is a no-op, but only for a party to the record: the
	// ownership check above runs first so the returned appointment never
	// leaks to a stranger.
	if appt.Status == to {
		return appt, nil
	}

	if err := CanTransition(appt.Status, to, actor.Role); err != nil {
		return nil, err
	}
	if to == StatusCompleted && appt.AppointmentDate.After(s.now().UTC()) {
		return nil, fmt.Errorf("%w: appointment has not taken place yet", ErrInvalidTransition)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	updated, err := s.repo.UpdateStatus(storeCtx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Row was there a moment ago; a concurrent transition won.
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return nil, s.storeErr("update status", err)
	}

	s.log.Info().
		Int64("appointment_id", id).
		Str("from", string(appt.Status)).
		Str("to", string(to)).
		Str("role", string(actor.Role)).
		Msg("appointment status updated")

	return updated, nil
}

// AdminUpdate is the patch an admin may apply to a non-terminal appointment.
type AdminUpdate struct {
	AppointmentDate *time.Time
	Notes           *string
}

// UpdateByAdmin rewrites date and/or notes. A date change re-runs the full
// admissibility chain (future, availability, conflict) under the booking
// lock for the new slot.
func (s *Service) UpdateByAdmin(ctx context.Context, actor Actor, id int64, upd AdminUpdate) (*Appointment, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrForbidden
	}

	appt, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appt.Status)
	}

	if upd.Notes != nil {
		appt.Notes = upd.Notes
	}

	dateChanged := upd.AppointmentDate != nil && !upd.AppointmentDate.Equal(appt.AppointmentDate)
	if !dateChanged {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		updated, err := s.repo.Update(storeCtx, appt)
		if err != nil {
			return nil, s.storeErr("update appointment", err)
		}
		return updated, nil
	}

	at := *upd.AppointmentDate
	if !at.After(s.now().UTC()) {
		return nil, ErrPastDate
	}

	doctor, err := s.lookupDoctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	if !IsAvailable(ParseWindows(doctor.AvailableTimeslots), at, s.loc) {
		return nil, ErrOutsideAvailability
	}

	var updated *Appointment

	err = s.locker.WithBookingLock(ctx, appt.DoctorID, at, func(lockCtx context.Context) error {
		conflict, err := s.hasConflict(lockCtx, appt.DoctorID, at)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}

		appt.AppointmentDate = at

		storeCtx, cancel := context.WithTimeout(lockCtx, s.storeTimeout)
		defer cancel()

		updated, err = s.repo.Update(storeCtx, appt)
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return ErrSlotTaken
			}
			return s.storeErr("update appointment", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", id).
		Time("appointment_date", at).
		Msg("appointment rescheduled by admin")

	return updated, nil
}

// Get returns a hydrated appointment. Patients and doctors may only read
// records they are a party to.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Detail, error) {
	appt, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(actor, appt); err != nil {
		return nil, err
	}

	details := s.hydrate(ctx, []Appointment{*appt})
	return &details[0], nil
}

func (s *Service) ListForAdmin(ctx context.Context, f ListFilter) ([]Detail, error) {
	return s.list(ctx, f)
}

func (s *Service) ListForPatient(ctx context.Context, patientID int64, f ListFilter) ([]Detail, error) {
	f.PatientID = &patientID
	return s.list(ctx, f)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID int64, f ListFilter) ([]Detail, error) {
	f.DoctorID = &doctorID
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f ListFilter) ([]Detail, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	appts, err := s.repo.List(storeCtx, f)
	if err != nil {
		return nil, s.storeErr("list appointments", err)
	}

	return s.hydrate(ctx, appts), nil
}

// hydrate attaches party names from the directory. Directory misses and
// failures leave the name empty; listing never fails on a stale cache.
func (s *Service) hydrate(ctx context.Context, appts []Appointment) []Detail {
	names := make(map[int64]string)

	nameOf := func(userID int64) string {
		if name, ok := names[userID]; ok {
			return name
		}
		var name string
		if info, err := s.dir.GetUserInfo(ctx, userID); err == nil && info != nil {
			name = info.FullName
		}
		names[userID] = name
		return name
	}

	details := make([]Detail, 0, len(appts))
	for _, a := range appts {
		details = append(details, Detail{
			Appointment: a,
			DoctorName:  nameOf(a.DoctorID),
			PatientName: nameOf(a.PatientID),
		})
	}

	return details
}

// lookupDoctor fails closed: a directory miss or a non-doctor entry is
// ErrDoctorNotFound, a transport failure is retryable.
func (s *Service) lookupDoctor(ctx context.Context, doctorID int64) (*directory.UserInfo, error) {
	info, err := s.dir.GetUserInfo(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: directory lookup failed: %v", ErrStoreUnavailable, err)
	}
	if info == nil || info.UserType != directory.UserTypeDoctor {
		return nil, ErrDoctorNotFound
	}
	return info, nil
}

func (s *Service) hasConflict(ctx context.Context, doctorID int64, at time.Time) (bool, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.repo.FindByDoctorAndInstant(storeCtx, doctorID, at, StatusCancelled)
	if err != nil {
		return false, s.storeErr("check conflicts", err)
	}

	return len(existing) > 0, nil
}

func (s *Service) getAppointment(ctx context.Context, id int64) (*Appointment, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	appt, err := s.repo.GetByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, s.storeErr("load appointment", err)
	}

	return appt, nil
}

func (s *Service) checkOwnership(actor Actor, appt *Appointment) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleDoctor:
		if appt.DoctorID == actor.ID {
			return nil
		}
	case RolePatient:
		if appt.PatientID == actor.ID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
