package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/directory"
	"github.com/carebook/appointment-scheduling/internal/redisclient"
)

// fakeRepo is an in-memory Repository that enforces the same slot uniqueness
// the partial index does in Postgres.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	appts  map[int64]Appointment

	failWith error // when set, every call fails with this error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appts: make(map[int64]Appointment)}
}

func (r *fakeRepo) activeSlotHolder(doctorID int64, at time.Time, skipID int64) bool {
	for _, a := range r.appts {
		if a.ID != skipID && a.DoctorID == doctorID && a.AppointmentDate.Equal(at) && a.Status != StatusCancelled {
			return true
		}
	}
	return false
}

func (r *fakeRepo) Create(_ context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	if r.activeSlotHolder(appt.DoctorID, appt.AppointmentDate, 0) {
		return nil, ErrSlotTaken
	}

	r.nextID++
	created := *appt
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	r.appts[created.ID] = created

	return &created, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *fakeRepo) FindByDoctorAndInstant(_ context.Context, doctorID int64, at time.Time, exclude Status) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	var result []Appointment
	for _, a := range r.appts {
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(at) && a.Status != exclude {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	r.appts[id] = a
	return &a, nil
}

func (r *fakeRepo) Update(_ context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	a, ok := r.appts[appt.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusCancelled && r.activeSlotHolder(appt.DoctorID, appt.AppointmentDate, appt.ID) {
		return nil, ErrSlotTaken
	}
	a.AppointmentDate = appt.AppointmentDate
	a.Notes = appt.Notes
	r.appts[appt.ID] = a
	return &a, nil
}

func (r *fakeRepo) List(_ context.Context, f ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	var result []Appointment
	for _, a := range r.appts {
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.StartDate != nil && a.AppointmentDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && a.AppointmentDate.After(*f.EndDate) {
			continue
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AppointmentDate.Before(result[j].AppointmentDate)
	})

	if f.Offset >= len(result) {
		return nil, nil
	}
	result = result[f.Offset:]
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

// fakeLocker serializes callers per booking key, like the Redis locker does
// across processes.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *fakeLocker) WithBookingLock(ctx context.Context, doctorID int64, at time.Time, fn func(ctx context.Context) error) error {
	key := NewBookingKey(doctorID, at).String()

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// contendedLocker always reports the lock as held elsewhere.
type contendedLocker struct{}

func (contendedLocker) WithBookingLock(context.Context, int64, time.Time, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type fakeDirectory struct {
	users map[int64]*directory.UserInfo
	err   error
}

func (d *fakeDirectory) GetUserInfo(_ context.Context, userID int64) (*directory.UserInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.users[userID], nil
}

const (
	doctorID  = int64(42)
	patientID = int64(7)
)

// fixedNow is noon UTC; slotAt is 04:00 UTC = 10:00 in Dhaka, inside the
// test doctor's 09:00-12:00 window, on a later day.
var (
	fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	slotAt   = time.Date(2026, 9, 14, 4, 0, 0, 0, time.UTC)
)

func testDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[int64]*directory.UserInfo{
		doctorID: {
			ID:                 doctorID,
			UserType:           directory.UserTypeDoctor,
			FullName:           "Dr. Farhana Rahman",
			AvailableTimeslots: "09:00-12:00,14:00-17:00",
			ConsultationFee:    800,
		},
		patientID: {
			ID:       patientID,
			UserType: directory.UserTypePatient,
			FullName: "Arif Hossain",
		},
	}}
}

func newTestService(t *testing.T, repo Repository, locker redisclient.Locker, dir directory.Lookup) *Service {
	t.Helper()

	cfg := config.Config{
		ClinicTimezone: "Asia/Dhaka",
		StoreTimeout:   time.Second,
	}
	svc, err := NewService(repo, locker, dir, cfg, zerolog.Nop())
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestBookSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())

	notes := "follow-up visit"
	appt, err := svc.Book(context.Background(), doctorID, patientID, slotAt, &notes)
	require.NoError(t, err)

	assert.NotZero(t, appt.ID)
	assert.Equal(t, doctorID, appt.DoctorID)
	assert.Equal(t, patientID, appt.PatientID)
	assert.Equal(t, StatusPending, appt.Status)
	assert.True(t, appt.AppointmentDate.Equal(slotAt))
	require.NotNil(t, appt.Notes)
	assert.Equal(t, "follow-up visit", *appt.Notes)
}

func TestBookRejectsPastDate(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	_, err := svc.Book(context.Background(), doctorID, patientID, fixedNow.Add(-time.Hour), nil)
	assert.ErrorIs(t, err, ErrPastDate)

	// Exactly "now" is not strictly in the future.
	_, err = svc.Book(context.Background(), doctorID, patientID, fixedNow, nil)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestBookUnknownDoctor(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	_, err := svc.Book(context.Background(), 999, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookNonDoctorUser(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	// patientID exists in the directory but is not a doctor.
	_, err := svc.Book(context.Background(), patientID, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookDirectoryFailureIsRetryable(t *testing.T) {
	dir := testDirectory()
	dir.err = errors.New("redis: connection refused")
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), dir)

	_, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestBookOutsideAvailability(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	// 10:00 UTC is 16:00 Dhaka: inside the second window. 07:30 UTC is
	// 13:30 Dhaka: between windows.
	betweenWindows := time.Date(2026, 9, 14, 7, 30, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), doctorID, patientID, betweenWindows, nil)
	assert.ErrorIs(t, err, ErrOutsideAvailability)
}

func TestBookWindowBoundaryInclusive(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	// 06:00 UTC is exactly 12:00 in Dhaka, the end of the morning window.
	endBoundary := time.Date(2026, 9, 14, 6, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), doctorID, patientID, endBoundary, nil)
	assert.NoError(t, err)

	// One minute past the boundary on another day.
	pastBoundary := time.Date(2026, 9, 15, 6, 1, 0, 0, time.UTC)
	_, err = svc.Book(context.Background(), doctorID, patientID, pastBoundary, nil)
	assert.ErrorIs(t, err, ErrOutsideAvailability)
}

func TestBookConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())

	_, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	require.NoError(t, err)

	// Same patient retrying and a different patient both lose.
	_, err = svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = svc.Book(context.Background(), doctorID, int64(8), slotAt, nil)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookCancelledSlotCanBeRebooked(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())

	first, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), Actor{ID: patientID, Role: RolePatient}, first.ID, StatusCancelled)
	require.NoError(t, err)

	second, err := svc.Book(context.Background(), doctorID, int64(8), slotAt, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBookLockContentionSurfacesAsConflict(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), contendedLocker{}, testDirectory())

	_, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookConcurrentSameSlotOneWinner(t *testing.T) {
	const n = 32

	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())

	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), doctorID, int64(100+i), slotAt, nil)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)

	active, err := repo.FindByDoctorAndInstant(context.Background(), doctorID, slotAt, StatusCancelled)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestBookStoreTimeout(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = fmt.Errorf("query: %w", context.DeadlineExceeded)
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())

	_, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func bookPending(t *testing.T, svc *Service) *Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	require.NoError(t, err)
	return appt
}

func TestUpdateStatusConfirmByDoctor(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	updated, err := svc.UpdateStatus(context.Background(), Actor{ID: doctorID, Role: RoleDoctor}, appt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestUpdateStatusConfirmByWrongDoctor(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: 555, Role: RoleDoctor}, appt.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatusConfirmByPatientForbidden(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: patientID, Role: RolePatient}, appt.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatusCancelByOwningPatient(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	updated, err := svc.UpdateStatus(context.Background(), Actor{ID: patientID, Role: RolePatient}, appt.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestUpdateStatusCancelByOtherPatientForbidden(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: 888, Role: RolePatient}, appt.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatusPendingToCompletedInvalid(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: doctorID, Role: RoleDoctor}, appt.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusCompleteBeforeDateInvalid(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	doctor := Actor{ID: doctorID, Role: RoleDoctor}
	_, err := svc.UpdateStatus(context.Background(), doctor, appt.ID, StatusConfirmed)
	require.NoError(t, err)

	// Still before the appointment date.
	_, err = svc.UpdateStatus(context.Background(), doctor, appt.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusCompleteAfterDate(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	doctor := Actor{ID: doctorID, Role: RoleDoctor}
	_, err := svc.UpdateStatus(context.Background(), doctor, appt.ID, StatusConfirmed)
	require.NoError(t, err)

	// The visit has now happened.
	svc.now = func() time.Time { return slotAt.Add(time.Hour) }

	updated, err := svc.UpdateStatus(context.Background(), doctor, appt.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	// Terminal: nothing moves out of completed.
	_, err = svc.UpdateStatus(context.Background(), Actor{ID: 1, Role: RoleAdmin}, appt.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusOutOfCancelledInvalid(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	admin := Actor{ID: 1, Role: RoleAdmin}
	_, err := svc.UpdateStatus(context.Background(), admin, appt.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), admin, appt.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusSameStateNoOp(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	updated, err := svc.UpdateStatus(context.Background(), Actor{ID: patientID, Role: RolePatient}, appt.ID, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)
}

func TestUpdateStatusSameStateStrangerForbidden(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	// A same-state update must not hand the record to an actor who could
	// not read it in the first place.
	stranger := Actor{ID: 999, Role: RolePatient}
	_, err := svc.Get(context.Background(), stranger, appt.ID)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateStatus(context.Background(), stranger, appt.ID, StatusPending)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, updated)

	_, err = svc.UpdateStatus(context.Background(), Actor{ID: 555, Role: RoleDoctor}, appt.ID, StatusPending)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: 1, Role: RoleAdmin}, 12345, StatusCancelled)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestUpdateByAdminRequiresAdmin(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	_, err := svc.UpdateByAdmin(context.Background(), Actor{ID: doctorID, Role: RoleDoctor}, appt.ID, AdminUpdate{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateByAdminNotes(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	notes := "rescheduled per phone call"
	updated, err := svc.UpdateByAdmin(context.Background(), Actor{ID: 1, Role: RoleAdmin}, appt.ID, AdminUpdate{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.True(t, updated.AppointmentDate.Equal(slotAt))
}

func TestUpdateByAdminDateChangeRevalidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)
	admin := Actor{ID: 1, Role: RoleAdmin}

	t.Run("outside availability", func(t *testing.T) {
		badAt := time.Date(2026, 9, 15, 7, 30, 0, 0, time.UTC) // 13:30 Dhaka
		_, err := svc.UpdateByAdmin(context.Background(), admin, appt.ID, AdminUpdate{AppointmentDate: &badAt})
		assert.ErrorIs(t, err, ErrOutsideAvailability)
	})

	t.Run("past date", func(t *testing.T) {
		pastAt := fixedNow.Add(-24 * time.Hour)
		_, err := svc.UpdateByAdmin(context.Background(), admin, appt.ID, AdminUpdate{AppointmentDate: &pastAt})
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("collides with another booking", func(t *testing.T) {
		otherAt := time.Date(2026, 9, 15, 4, 0, 0, 0, time.UTC)
		_, err := svc.Book(context.Background(), doctorID, int64(8), otherAt, nil)
		require.NoError(t, err)

		_, err = svc.UpdateByAdmin(context.Background(), admin, appt.ID, AdminUpdate{AppointmentDate: &otherAt})
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("valid reschedule", func(t *testing.T) {
		newAt := time.Date(2026, 9, 16, 4, 30, 0, 0, time.UTC) // 10:30 Dhaka
		updated, err := svc.UpdateByAdmin(context.Background(), admin, appt.ID, AdminUpdate{AppointmentDate: &newAt})
		require.NoError(t, err)
		assert.True(t, updated.AppointmentDate.Equal(newAt))
	})
}

func TestUpdateByAdminTerminalInvalid(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)
	admin := Actor{ID: 1, Role: RoleAdmin}

	_, err := svc.UpdateStatus(context.Background(), admin, appt.ID, StatusCancelled)
	require.NoError(t, err)

	notes := "too late"
	_, err = svc.UpdateByAdmin(context.Background(), admin, appt.ID, AdminUpdate{Notes: &notes})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetOwnership(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	detail, err := svc.Get(context.Background(), Actor{ID: patientID, Role: RolePatient}, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Farhana Rahman", detail.DoctorName)
	assert.Equal(t, "Arif Hossain", detail.PatientName)

	_, err = svc.Get(context.Background(), Actor{ID: 999, Role: RolePatient}, appt.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), Actor{ID: 1, Role: RoleAdmin}, appt.ID)
	assert.NoError(t, err)
}

func TestListForPatient(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())

	_, err := svc.Book(context.Background(), doctorID, patientID, slotAt, nil)
	require.NoError(t, err)
	otherAt := time.Date(2026, 9, 15, 4, 0, 0, 0, time.UTC)
	_, err = svc.Book(context.Background(), doctorID, int64(8), otherAt, nil)
	require.NoError(t, err)

	list, err := svc.ListForPatient(context.Background(), patientID, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, patientID, list[0].PatientID)
	assert.Equal(t, "Arif Hossain", list[0].PatientName)
}

func TestListForDoctorWithStatusFilter(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), testDirectory())
	appt := bookPending(t, svc)

	otherAt := time.Date(2026, 9, 15, 4, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), doctorID, int64(8), otherAt, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), Actor{ID: doctorID, Role: RoleDoctor}, appt.ID, StatusConfirmed)
	require.NoError(t, err)

	confirmed := StatusConfirmed
	list, err := svc.ListForDoctor(context.Background(), doctorID, ListFilter{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, appt.ID, list[0].ID)
}

func TestListHydrationToleratesDirectoryMiss(t *testing.T) {
	dir := testDirectory()
	svc := newTestService(t, newFakeRepo(), newFakeLocker(), dir)
	bookPending(t, svc)

	delete(dir.users, patientID)

	list, err := svc.ListForAdmin(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dr. Farhana Rahman", list[0].DoctorName)
	assert.Empty(t, list[0].PatientName)
}
