package syncrounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"planningpoker/internal/services/rounds"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type entry struct {
	streamID  string
	roomID    string
	round     int64
	average   float64
	mostVoted string
	votes     string
	atMillis  int64
}

const (
	batchSize = 100
	blockFor  = 2 * time.Second
	backoff   = time.Second
)

// Run tails the round archive stream and persists every revealed round.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		cursor := "0-0"
		for ctx.Err() == nil {
			next, err := drain(ctx, rdc, db, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("syncrounds.drain", zap.String("cursor", cursor), zap.Error(err))
				time.Sleep(backoff)
				continue
			}
			cursor = next
		}
	}()
}

// drain reads one batch after cursor and stores it, returning the id of the
// last stored entry. The cursor only moves once the batch is committed.
func drain(ctx context.Context, rdc *redis.Client, db *sql.DB, cursor string) (string, error) {
	res, err := rdc.XRead(ctx, &redis.XReadArgs{
		Streams: []string{rounds.StreamKey, cursor},
		Count:   batchSize,
		Block:   blockFor,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return cursor, nil
	}
	if err != nil {
		return cursor, fmt.Errorf("xread: %w", err)
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return cursor, nil
	}
	msgs := res[0].Messages
	if err := persist(ctx, db, msgs); err != nil {
		return cursor, fmt.Errorf("persist: %w", err)
	}
	return msgs[len(msgs)-1].ID, nil
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO poker_rounds (stream_id, room_id, round, average, most_voted, votes, revealed_at)
	             VALUES ($1, $2, $3, $4, $5, $6::jsonb, to_timestamp($7::double precision / 1000))
	             ON CONFLICT (stream_id) DO NOTHING`
	for _, m := range msgs {
		e, err := decode(m)
		if err != nil {
			zap.L().Warn("syncrounds.skip_entry", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		if _, err := tx.ExecContext(ctx, ins,
			e.streamID, e.roomID, e.round, e.average, e.mostVoted, e.votes, e.atMillis); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func decode(m redis.XMessage) (entry, error) {
	e := entry{streamID: m.ID}
	var err error

	field := func(name string) string {
		if err != nil {
			return ""
		}
		v, ok := m.Values[name].(string)
		if !ok {
			err = fmt.Errorf("missing field %q", name)
		}
		return v
	}

	e.roomID = field("room")
	round := field("round")
	avg := field("avg")
	e.mostVoted = field("top")
	e.votes = field("votes")
	at := field("at")
	if err != nil {
		return entry{}, err
	}

	if e.round, err = strconv.ParseInt(round, 10, 64); err != nil {
		return entry{}, fmt.Errorf("round: %w", err)
	}
	if e.average, err = strconv.ParseFloat(avg, 64); err != nil {
		return entry{}, fmt.Errorf("avg: %w", err)
	}
	if e.atMillis, err = strconv.ParseInt(at, 10, 64); err != nil {
		return entry{}, fmt.Errorf("at: %w", err)
	}
	return e, nil
}
