// Package directory reads the shared user cache maintained by the account
// service. This service never writes to it; entries may be stale or missing
// and a miss is an answer, not an error.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	UserTypeAdmin   = "admin"
	UserTypeDoctor  = "doctor"
	UserTypePatient = "patient"
)

// UserInfo mirrors the JSON the account service caches under user:<id>.
// AvailableTimeslots is a comma-separated list of "HH:MM-HH:MM" windows in
// the clinic's civil time; only doctors carry it.
type UserInfo struct {
	ID                 int64   `json:"id"`
	UserType           string  `json:"user_type"`
	FullName           string  `json:"full_name"`
	AvailableTimeslots string  `json:"available_timeslots"`
	ConsultationFee    float64 `json:"consultation_fee"`
}

// Lookup resolves a user id to cached account data. A nil UserInfo with a
// nil error means the user is unknown (or evicted).
type Lookup interface {
	GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error)
}

type RedisDirectory struct {
	client *redis.Client
}

func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{client: client}
}

func (d *RedisDirectory) GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error) {
	key := fmt.Sprintf("user:%d", userID)

	raw, err := d.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d from directory: %w", userID, err)
	}

	var info UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("unmarshal user %d: %w", userID, err)
	}
	if info.ID == 0 {
		info.ID = userID
	}

	return &info, nil
}
