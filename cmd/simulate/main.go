package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/carebook/appointment-scheduling/internal/appointment"
	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/directory"
	"github.com/carebook/appointment-scheduling/internal/redisclient"
)

// simulate drives concurrent booking traffic against a running api-server.
// Slots are derived from each doctor's availability windows in the user
// directory, so every request targets an instant the doctor actually serves.
// Phase one aims every worker at one slot to exercise the double-booking
// guard; phase two spreads bookings over many doctors and days.
type simConfig struct {
	baseURL   string
	workers   int
	doctors   int
	doctorMin int64
	patients  int64
	rounds    int
}

// doctorSlots pairs a doctor id with its parsed availability windows.
type doctorSlots struct {
	id      int64
	windows []appointment.Window
}

type counters struct {
	booked    atomic.Int64
	conflicts atomic.Int64
	rejected  atomic.Int64
	errors    atomic.Int64
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("service", "simulate").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	loc, err := cfg.ClinicLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("clinic location error")
	}

	sim := simConfig{
		baseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		workers:   getInt("SIM_WORKERS", 32),
		doctors:   getInt("SIM_DOCTORS", 40),
		doctorMin: int64(getInt("SIM_DOCTOR_ID_MIN", 10001)),
		patients:  int64(getInt("SIM_PATIENTS", 500)),
		rounds:    getInt("SIM_ROUNDS", 50),
	}

	log.Info().
		Str("base_url", sim.baseURL).
		Int("workers", sim.workers).
		Int("rounds", sim.rounds).
		Msg("simulation starting")

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	doctors, err := loadDoctors(ctx, directory.NewRedisDirectory(rdb), sim)
	if err != nil {
		log.Fatal().Err(err).Msg("load doctors from directory")
	}
	log.Info().Int("doctors", len(doctors)).Msg("loaded doctor availability")

	client := &http.Client{Timeout: 10 * time.Second}

	// Tomorrow at the opening of the target doctor's first window, so the
	// slot is both in the future and inside availability.
	target := doctors[0]
	contendedSlot := slotAt(time.Now().AddDate(0, 0, 1), target.windows[0].Start, loc)

	contended := runContendedPhase(ctx, client, sim, target.id, contendedSlot)
	log.Info().
		Int64("booked", contended.booked.Load()).
		Int64("conflicts", contended.conflicts.Load()).
		Int64("errors", contended.errors.Load()).
		Msg("contended phase done")

	if got := contended.booked.Load(); got != 1 {
		log.Error().Int64("booked", got).Msg("expected exactly one winner for the contended slot")
	}

	spread := runSpreadPhase(ctx, client, sim, doctors, loc, log)
	fmt.Printf("\nspread phase: booked=%d conflicts=%d rejected=%d errors=%d\n",
		spread.booked.Load(), spread.conflicts.Load(), spread.rejected.Load(), spread.errors.Load())
}

// loadDoctors reads availability for the configured doctor id range and
// keeps every doctor that has at least one parseable window.
func loadDoctors(ctx context.Context, dir directory.Lookup, sim simConfig) ([]doctorSlots, error) {
	var doctors []doctorSlots

	for i := 0; i < sim.doctors; i++ {
		id := sim.doctorMin + int64(i)
		info, err := dir.GetUserInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		if info == nil || info.UserType != directory.UserTypeDoctor {
			continue
		}
		windows := appointment.ParseWindows(info.AvailableTimeslots)
		if len(windows) == 0 {
			continue
		}
		doctors = append(doctors, doctorSlots{id: id, windows: windows})
	}

	if len(doctors) == 0 {
		return nil, fmt.Errorf("no doctors with availability in ids %d..%d; run cmd/seed first",
			sim.doctorMin, sim.doctorMin+int64(sim.doctors)-1)
	}
	return doctors, nil
}

// runContendedPhase fires every worker at the same (doctor, instant) pair.
// Exactly one booking should come back 201; the rest must be 409.
func runContendedPhase(ctx context.Context, client *http.Client, sim simConfig, doctorID int64, slot time.Time) *counters {
	var c counters

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < sim.workers; i++ {
		patientID := int64(i%int(sim.patients)) + 2
		g.Go(func() error {
			book(gctx, client, sim.baseURL, doctorID, patientID, slot, &c)
			return nil
		})
	}
	_ = g.Wait()

	return &c
}

func runSpreadPhase(ctx context.Context, client *http.Client, sim simConfig, doctors []doctorSlots, loc *time.Location, log zerolog.Logger) *counters {
	var c counters

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sim.workers)

	base := time.Now()
	for i := 0; i < sim.rounds*sim.workers; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			doc := doctors[rng.Intn(len(doctors))]
			patientID := rng.Int63n(sim.patients) + 2
			day := base.AddDate(0, 0, 1+rng.Intn(14))
			slot := slotAt(day, randomSlotSecond(rng, doc.windows), loc)
			book(gctx, client, sim.baseURL, doc.id, patientID, slot, &c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("spread phase aborted")
	}

	return &c
}

// slotAt places a second-of-day on the given day in clinic civil time.
func slotAt(day time.Time, secondOfDay int, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, secondOfDay, 0, loc)
}

// randomSlotSecond picks a half-hour mark inside one of the windows. Window
// bounds are inclusive, so the last mark may land exactly on End.
func randomSlotSecond(rng *rand.Rand, windows []appointment.Window) int {
	w := windows[rng.Intn(len(windows))]
	marks := (w.End-w.Start)/1800 + 1
	return w.Start + 1800*rng.Intn(marks)
}

func book(ctx context.Context, client *http.Client, baseURL string, doctorID, patientID int64, at time.Time, c *counters) {
	payload, _ := json.Marshal(map[string]any{
		"doctor_id":        doctorID,
		"appointment_date": at.Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(payload))
	if err != nil {
		c.errors.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", strconv.FormatInt(patientID, 10))
	req.Header.Set("X-Actor-Role", "patient")

	resp, err := client.Do(req)
	if err != nil {
		c.errors.Add(1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		c.booked.Add(1)
	case http.StatusConflict:
		c.conflicts.Add(1)
	case http.StatusBadRequest, http.StatusNotFound:
		c.rejected.Add(1)
	default:
		c.errors.Add(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
