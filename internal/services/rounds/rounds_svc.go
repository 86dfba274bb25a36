package rounds

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoundResult is a revealed round as handed over by the websocket layer.
type RoundResult struct {
	RoomID     string
	Votes      map[string]string
	Average    float64
	MostVoted  string
	RevealedAt time.Time
}

type RoundDTO struct {
	StreamID   string            `json:"stream_id"   example:"1735689600000-0"`
	RoomID     string            `json:"room_id"     example:"team-rocket"`
	Round      int64             `json:"round"       example:"3"`
	Average    float64           `json:"average"     example:"5.33"`
	MostVoted  string            `json:"most_voted"  example:"5"`
	Votes      map[string]string `json:"votes"`
	RevealedAt time.Time         `json:"revealed_at" example:"2025-07-27T16:05:05Z"`
}

const (
	StreamKey  = "poker:rounds"
	CounterKey = "poker:rounds:count"

	streamMaxLen = 10000
)

var (
	ErrArchiveDisabled = errors.New("round archive disabled")
	ErrRoomIDRequired  = errors.New("room id required")
)

type IRoundService interface {
	Record(ctx context.Context, r RoundResult) error
	ListRounds(ctx context.Context, roomID string, limit, offset int) ([]RoundDTO, error)
}

type roundService struct {
	rdc *redis.Client
	db  *sql.DB
}

var _ IRoundService = (*roundService)(nil)

func NewRoundService(rdc *redis.Client, db *sql.DB) IRoundService {
	return &roundService{rdc: rdc, db: db}
}

// Record numbers the round per room and appends it to the archive stream.
// The stream is drained into Postgres by syncrounds.
func (svc *roundService) Record(ctx context.Context, r RoundResult) error {
	if r.RoomID == "" {
		return ErrRoomIDRequired
	}
	votes, err := json.Marshal(r.Votes)
	if err != nil {
		return fmt.Errorf("encode votes: %w", err)
	}

	round, err := svc.rdc.HIncrBy(ctx, CounterKey, r.RoomID, 1).Result()
	if err != nil {
		return fmt.Errorf("next round number: %w", err)
	}

	return svc.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: EntryValues(r, round, votes),
	}).Err()
}

// EntryValues is the stream field layout shared with the archive consumer.
func EntryValues(r RoundResult, round int64, votes []byte) []interface{} {
	return []interface{}{
		"room", r.RoomID,
		"round", strconv.FormatInt(round, 10),
		"avg", strconv.FormatFloat(r.Average, 'f', -1, 64),
		"top", r.MostVoted,
		"votes", string(votes),
		"at", strconv.FormatInt(r.RevealedAt.UnixMilli(), 10),
	}
}

func (svc *roundService) ListRounds(ctx context.Context, roomID string, limit, offset int) ([]RoundDTO, error) {
	if roomID == "" {
		return nil, ErrRoomIDRequired
	}
	if limit == 0 {
		limit = 10
	}

	const q = `SELECT stream_id, room_id, round, average, most_voted, votes, revealed_at
	             FROM poker_rounds
	            WHERE room_id = $1
	         ORDER BY revealed_at DESC, round DESC
	            LIMIT $2 OFFSET $3`
	rows, err := svc.db.QueryContext(ctx, q, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]RoundDTO, 0, limit)
	for rows.Next() {
		var (
			dto   RoundDTO
			votes []byte
		)
		if err := rows.Scan(&dto.StreamID, &dto.RoomID, &dto.Round, &dto.Average,
			&dto.MostVoted, &votes, &dto.RevealedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(votes, &dto.Votes); err != nil {
			return nil, fmt.Errorf("decode votes of %s: %w", dto.StreamID, err)
		}
		list = append(list, dto)
	}
	return list, rows.Err()
}

type disabledService struct{}

// NewDisabledService is used when the archive is switched off: recording is
// a no-op and listing reports ErrArchiveDisabled.
func NewDisabledService() IRoundService { return disabledService{} }

func (disabledService) Record(context.Context, RoundResult) error { return nil }

func (disabledService) ListRounds(context.Context, string, int, int) ([]RoundDTO, error) {
	return nil, ErrArchiveDisabled
}
