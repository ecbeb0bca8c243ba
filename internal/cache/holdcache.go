// Package cache implements the Redis-backed seat hold store and the
// keyspace expiry listener that turns hold TTLs into events.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinetix/cinema-booking/internal/domain"
)

// reserveSeatScript claims the seat and records it in the user's hold index
// in one atomic step. It fails whenever any hold exists for the seat, even
// one owned by the requesting user.
var reserveSeatScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return redis.error_reply("seat already held")
	end

	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	redis.call("SADD", KEYS[2], KEYS[1])
	redis.call("PEXPIRE", KEYS[2], ARGV[2])

	return redis.status_reply("OK")
`)

// releaseSeatScript removes the hold only when the caller owns it. A missing
// hold is treated as already released.
var releaseSeatScript = redis.NewScript(`
	local owner = redis.call("GET", KEYS[1])
	if not owner then
		return 0
	end

	if owner ~= ARGV[1] then
		return redis.error_reply("seat held by another user")
	end

	redis.call("DEL", KEYS[1])
	redis.call("SREM", KEYS[2], KEYS[1])

	return 1
`)

func holdKey(sessionID, seatID int64) string {
	return fmt.Sprintf("seat_hold:%d:%d", sessionID, seatID)
}

func userHoldsKey(userID, sessionID int64) string {
	return fmt.Sprintf("user_holds:%d:%d", userID, sessionID)
}

// parseHoldKey extracts the session and seat IDs from a seat hold key.
func parseHoldKey(key string) (sessionID, seatID int64, ok bool) {
	rest, found := strings.CutPrefix(key, "seat_hold:")
	if !found {
		return 0, 0, false
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}

	sessionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	seatID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return sessionID, seatID, true
}

type RedisSeatHoldCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSeatHoldCache(client redis.UniversalClient, ttl time.Duration) *RedisSeatHoldCache {
	return &RedisSeatHoldCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisSeatHoldCache) Reserve(ctx context.Context, seatID, sessionID, userID int64) error {
	keys := []string{holdKey(sessionID, seatID), userHoldsKey(userID, sessionID)}

	err := reserveSeatScript.Run(ctx, c.client, keys, userID, c.ttl.Milliseconds()).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat already held") {
			return domain.ErrSeatAlreadyHeld
		}

		return fmt.Errorf("reserving seat hold: %w", err)
	}

	return nil
}

func (c *RedisSeatHoldCache) Release(ctx context.Context, seatID, sessionID, userID int64) (bool, error) {
	keys := []string{holdKey(sessionID, seatID), userHoldsKey(userID, sessionID)}

	deleted, err := releaseSeatScript.Run(ctx, c.client, keys, userID).Int()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat held by another user") {
			return false, domain.ErrHoldOwnedByOther
		}

		return false, fmt.Errorf("releasing seat hold: %w", err)
	}

	return deleted == 1, nil
}

// ClearAllForUserInSession drops every hold recorded in the user's index for
// the session. Index members whose hold key already expired are returned
// too; the resulting duplicate "freed" notifications are harmless.
func (c *RedisSeatHoldCache) ClearAllForUserInSession(ctx context.Context, userID, sessionID int64) ([]int64, error) {
	indexKey := userHoldsKey(userID, sessionID)

	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing user seat holds: %w", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, members...)
	pipe.Del(ctx, indexKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("clearing user seat holds: %w", err)
	}

	seatIDs := make([]int64, 0, len(members))

	for _, member := range members {
		if _, seatID, ok := parseHoldKey(member); ok {
			seatIDs = append(seatIDs, seatID)
		}
	}

	return seatIDs, nil
}

func (c *RedisSeatHoldCache) IsHeldByOther(ctx context.Context, seatIDs []int64, sessionID, userID int64) (bool, error) {
	if len(seatIDs) == 0 {
		return false, nil
	}

	owners, err := c.holders(ctx, sessionID, seatIDs)
	if err != nil {
		return false, err
	}

	self := strconv.FormatInt(userID, 10)

	for _, owner := range owners {
		if owner == nil {
			continue
		}

		if owner != self {
			return true, nil
		}
	}

	return false, nil
}

func (c *RedisSeatHoldCache) FindHeld(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}

	owners, err := c.holders(ctx, sessionID, seatIDs)
	if err != nil {
		return nil, err
	}

	var held []int64

	for i, owner := range owners {
		if owner != nil {
			held = append(held, seatIDs[i])
		}
	}

	return held, nil
}

func (c *RedisSeatHoldCache) holders(ctx context.Context, sessionID int64, seatIDs []int64) ([]any, error) {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = holdKey(sessionID, seatID)
	}

	owners, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading seat holds: %w", err)
	}

	return owners, nil
}

func (c *RedisSeatHoldCache) TTL() time.Duration {
	return c.ttl
}
