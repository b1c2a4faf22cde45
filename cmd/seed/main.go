package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/directory"
	"github.com/carebook/appointment-scheduling/internal/redisclient"
)

// Doctor ids start above the patient range so the two never collide.
const (
	patientCount   = 500
	doctorCount    = 40
	doctorIDOffset = 10000
)

var availabilityPatterns = []string{
	"09:00-12:00,14:00-17:00",
	"08:00-13:00",
	"10:00-12:30,15:00-19:00",
	"09:30-11:30,13:00-16:00,18:00-20:00",
	"14:00-21:00",
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("service", "seed").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer rdb.Close()

	gofakeit.Seed(time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedDoctors(ctx, rdb, doctorCount); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	log.Info().Int("count", doctorCount).Msg("doctors seeded")

	if err := seedPatients(ctx, rdb, patientCount); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	log.Info().Int("count", patientCount).Msg("patients seeded")

	if err := seedAdmin(ctx, rdb); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	log.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, rdb *redis.Client, count int) error {
	pipe := rdb.Pipeline()
	for i := 0; i < count; i++ {
		id := int64(doctorIDOffset + i + 1)
		info := directory.UserInfo{
			ID:                 id,
			UserType:           directory.UserTypeDoctor,
			FullName:           "Dr. " + gofakeit.Name(),
			AvailableTimeslots: availabilityPatterns[gofakeit.Number(0, len(availabilityPatterns)-1)],
			ConsultationFee:    float64(gofakeit.Number(5, 30)) * 100,
		}
		if err := queueUser(ctx, pipe, info); err != nil {
			return err
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func seedPatients(ctx context.Context, rdb *redis.Client, count int) error {
	pipe := rdb.Pipeline()
	for i := 0; i < count; i++ {
		info := directory.UserInfo{
			ID:       int64(i + 2),
			UserType: directory.UserTypePatient,
			FullName: gofakeit.Name(),
		}
		if err := queueUser(ctx, pipe, info); err != nil {
			return err
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func seedAdmin(ctx context.Context, rdb *redis.Client) error {
	info := directory.UserInfo{
		ID:       1,
		UserType: directory.UserTypeAdmin,
		FullName: "Clinic Admin",
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf("user:%d", info.ID), raw, 0).Err()
}

func queueUser(ctx context.Context, pipe redis.Pipeliner, info directory.UserInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal user %d: %w", info.ID, err)
	}
	pipe.Set(ctx, fmt.Sprintf("user:%d", info.ID), raw, 0)
	return nil
}
