package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/mocks"
)

const testHoldTTL = 5 * time.Minute

func scriptResult(ctx context.Context, err error) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("OK")
	}

	return cmd
}

func TestReserve(t *testing.T) {
	tests := []struct {
		name      string
		scriptErr error
		wantErr   error
	}{
		{
			name: "claims a free seat",
		},
		{
			name:      "rejects a seat that is already held",
			scriptErr: mocks.MockRedisError("seat already held"),
			wantErr:   domain.ErrSeatAlreadyHeld,
		},
		{
			name:      "propagates transport errors",
			scriptErr: mocks.MockRedisError("connection refused"),
			wantErr:   mocks.MockRedisError("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			client := new(mocks.MockRedisClient)
			client.On("EvalSha", ctx, mock.Anything, []string{"seat_hold:3:5", "user_holds:7:3"}, []interface{}{int64(7), testHoldTTL.Milliseconds()}).
				Return(scriptResult(ctx, tt.scriptErr))

			holdCache := NewRedisSeatHoldCache(client, testHoldTTL)

			err := holdCache.Reserve(ctx, 5, 3, 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			client.AssertExpectations(t)
		})
	}
}

func TestRelease(t *testing.T) {
	tests := []struct {
		name         string
		scriptVal    int64
		scriptErr    error
		wantReleased bool
		wantErr      error
	}{
		{
			name:         "releases own hold",
			scriptVal:    1,
			wantReleased: true,
		},
		{
			name:      "missing hold is a quiet no-op",
			scriptVal: 0,
		},
		{
			name:      "rejects releasing someone else's hold",
			scriptErr: mocks.MockRedisError("seat held by another user"),
			wantErr:   domain.ErrHoldOwnedByOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			cmd := redis.NewCmd(ctx)
			if tt.scriptErr != nil {
				cmd.SetErr(tt.scriptErr)
			} else {
				cmd.SetVal(tt.scriptVal)
			}

			client := new(mocks.MockRedisClient)
			client.On("EvalSha", ctx, mock.Anything, []string{"seat_hold:3:5", "user_holds:7:3"}, []interface{}{int64(7)}).
				Return(cmd)

			holdCache := NewRedisSeatHoldCache(client, testHoldTTL)

			released, err := holdCache.Release(ctx, 5, 3, 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantReleased, released)
			client.AssertExpectations(t)
		})
	}
}

func TestIsHeldByOther(t *testing.T) {
	tests := []struct {
		name   string
		owners []interface{}
		want   bool
	}{
		{
			name:   "no holds at all",
			owners: []interface{}{nil, nil, nil},
			want:   false,
		},
		{
			name:   "only own holds",
			owners: []interface{}{"7", nil, "7"},
			want:   false,
		},
		{
			name:   "one foreign hold",
			owners: []interface{}{"7", nil, "9"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			cmd := redis.NewSliceCmd(ctx)
			cmd.SetVal(tt.owners)

			client := new(mocks.MockRedisClient)
			client.On("MGet", ctx, []string{"seat_hold:3:1", "seat_hold:3:2", "seat_hold:3:3"}).Return(cmd)

			holdCache := NewRedisSeatHoldCache(client, testHoldTTL)

			held, err := holdCache.IsHeldByOther(ctx, []int64{1, 2, 3}, 3, 7)

			require.NoError(t, err)
			assert.Equal(t, tt.want, held)
			client.AssertExpectations(t)
		})
	}
}

func TestFindHeld(t *testing.T) {
	ctx := context.Background()

	cmd := redis.NewSliceCmd(ctx)
	cmd.SetVal([]interface{}{nil, "7", "9"})

	client := new(mocks.MockRedisClient)
	client.On("MGet", ctx, []string{"seat_hold:3:1", "seat_hold:3:2", "seat_hold:3:3"}).Return(cmd)

	holdCache := NewRedisSeatHoldCache(client, testHoldTTL)

	held, err := holdCache.FindHeld(ctx, 3, []int64{1, 2, 3})

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, held)
}

func TestClearAllForUserInSessionWithoutHolds(t *testing.T) {
	ctx := context.Background()

	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(nil)

	client := new(mocks.MockRedisClient)
	client.On("SMembers", ctx, "user_holds:7:3").Return(cmd)

	holdCache := NewRedisSeatHoldCache(client, testHoldTTL)

	seatIDs, err := holdCache.ClearAllForUserInSession(ctx, 7, 3)

	require.NoError(t, err)
	assert.Empty(t, seatIDs)
	client.AssertExpectations(t)
}

func TestParseHoldKey(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		wantSessionID int64
		wantSeatID    int64
		wantOK        bool
	}{
		{
			name:          "valid key",
			key:           "seat_hold:12:345",
			wantSessionID: 12,
			wantSeatID:    345,
			wantOK:        true,
		},
		{
			name: "wrong prefix",
			key:  "user_holds:7:3",
		},
		{
			name: "missing seat part",
			key:  "seat_hold:12",
		},
		{
			name: "non-numeric id",
			key:  "seat_hold:12:abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessionID, seatID, ok := parseHoldKey(tt.key)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSessionID, sessionID)
			assert.Equal(t, tt.wantSeatID, seatID)
		})
	}
}
