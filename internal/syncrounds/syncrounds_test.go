package syncrounds

import (
	"context"
	"errors"
	"testing"
	"time"

	"planningpoker/internal/services/rounds"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamMessage(id string, r rounds.RoundResult, round int64, votes string) redis.XMessage {
	vals := rounds.EntryValues(r, round, []byte(votes))
	m := redis.XMessage{ID: id, Values: map[string]interface{}{}}
	for i := 0; i < len(vals); i += 2 {
		m.Values[vals[i].(string)] = vals[i+1]
	}
	return m
}

func TestDecode(t *testing.T) {
	at := time.UnixMilli(1753632305000)
	m := streamMessage("5-0", rounds.RoundResult{RoomID: "r1", Average: 5.5, MostVoted: "8", RevealedAt: at}, 4, `{"a":"8"}`)

	e, err := decode(m)
	require.NoError(t, err)
	assert.Equal(t, entry{
		streamID:  "5-0",
		roomID:    "r1",
		round:     4,
		average:   5.5,
		mostVoted: "8",
		votes:     `{"a":"8"}`,
		atMillis:  1753632305000,
	}, e)
}

func TestDecode_MissingOrBadFields(t *testing.T) {
	_, err := decode(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"room": "r1"}})
	assert.ErrorContains(t, err, `missing field "round"`)

	m := streamMessage("1-0", rounds.RoundResult{RoomID: "r1"}, 1, "{}")
	m.Values["avg"] = "lots"
	_, err = decode(m)
	assert.ErrorContains(t, err, "avg")
}

func TestPersist_InsertsBatchInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.UnixMilli(1753632305000)
	msgs := []redis.XMessage{
		streamMessage("1-0", rounds.RoundResult{RoomID: "r1", Average: 3, MostVoted: "3", RevealedAt: at}, 1, `{"a":"3"}`),
		{ID: "1-1", Values: map[string]interface{}{"room": "broken"}},
		streamMessage("2-0", rounds.RoundResult{RoomID: "r2", MostVoted: "", RevealedAt: at}, 7, `{}`),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO poker_rounds`).
		WithArgs("1-0", "r1", int64(1), 3.0, "3", `{"a":"3"}`, int64(1753632305000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO poker_rounds`).
		WithArgs("2-0", "r2", int64(7), 0.0, "", `{}`, int64(1753632305000)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, persist(context.Background(), db, msgs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersist_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	msgs := []redis.XMessage{
		streamMessage("1-0", rounds.RoundResult{RoomID: "r1", RevealedAt: time.UnixMilli(0)}, 1, `{}`),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO poker_rounds`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	assert.EqualError(t, persist(context.Background(), db, msgs), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrain_AdvancesCursorAfterCommit(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.UnixMilli(1753632305000)
	msg := streamMessage("9-0", rounds.RoundResult{RoomID: "r1", Average: 2, MostVoted: "2", RevealedAt: at}, 1, `{"a":"2"}`)
	rmock.ExpectXRead(&redis.XReadArgs{
		Streams: []string{rounds.StreamKey, "0-0"},
		Count:   batchSize,
		Block:   blockFor,
	}).SetVal([]redis.XStream{{Stream: rounds.StreamKey, Messages: []redis.XMessage{msg}}})

	smock.ExpectBegin()
	smock.ExpectExec(`INSERT INTO poker_rounds`).WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	next, err := drain(context.Background(), rdc, db, "0-0")
	require.NoError(t, err)
	assert.Equal(t, "9-0", next)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestDrain_KeepsCursorOnFailure(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()

	rmock.ExpectXRead(&redis.XReadArgs{
		Streams: []string{rounds.StreamKey, "4-0"},
		Count:   batchSize,
		Block:   blockFor,
	}).SetErr(errors.New("LOADING"))

	next, err := drain(context.Background(), rdc, nil, "4-0")
	assert.ErrorContains(t, err, "xread")
	assert.Equal(t, "4-0", next)

	rmock.ExpectXRead(&redis.XReadArgs{
		Streams: []string{rounds.StreamKey, "4-0"},
		Count:   batchSize,
		Block:   blockFor,
	}).RedisNil()

	next, err = drain(context.Background(), rdc, nil, "4-0")
	assert.NoError(t, err)
	assert.Equal(t, "4-0", next)
}
