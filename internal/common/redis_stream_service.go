package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamMessage is one entry read back from a stream. Data holds the JSON
// payload given to Publish.
type StreamMessage struct {
	ID   string
	Data []byte
}

// RedisStreamService publishes JSON payloads to Redis Streams and reads them
// back through consumer groups.
type RedisStreamService struct {
	client *redis.Client
}

func NewRedisStreamService(client *redis.Client) *RedisStreamService {
	return &RedisStreamService{
		client: client,
	}
}

// Publish adds payload to the stream as XADD stream * data <json>.
func (s *RedisStreamService) Publish(ctx context.Context, streamName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal stream payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Read blocks for up to blockTime waiting for one new message. It returns
// nil without error when nothing arrived.
func (s *RedisStreamService) Read(ctx context.Context, streamName, groupName, consumerName string, blockTime time.Duration) (*StreamMessage, error) {
	args := &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{streamName, ">"},
		Count:    1,
		Block:    blockTime,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	msg, err := toStreamMessage(streams[0].Messages[0])
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *RedisStreamService) Ack(ctx context.Context, streamName, groupName, messageID string) error {
	return s.client.XAck(ctx, streamName, groupName, messageID).Err()
}

// CreateConsumerGroup creates the group (and stream) if missing.
func (s *RedisStreamService) CreateConsumerGroup(ctx context.Context, streamName, groupName string) error {
	err := s.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (s *RedisStreamService) Length(ctx context.Context, streamName string) (int64, error) {
	length, err := s.client.XLen(ctx, streamName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get stream length: %w", err)
	}
	return length, nil
}

// ClaimStale takes over messages left pending by dead consumers for at least
// minIdleTime.
func (s *RedisStreamService) ClaimStale(ctx context.Context, streamName, groupName, consumerName string, minIdleTime time.Duration) ([]StreamMessage, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamName,
		Group:  groupName,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdleTime {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   streamName,
		Group:    groupName,
		Consumer: consumerName,
		MinIdle:  minIdleTime,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	out := make([]StreamMessage, 0, len(messages))
	for _, m := range messages {
		msg, err := toStreamMessage(m)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func toStreamMessage(m redis.XMessage) (StreamMessage, error) {
	dataStr, ok := m.Values["data"].(string)
	if !ok {
		return StreamMessage{}, fmt.Errorf("invalid message format: data field missing in %s", m.ID)
	}
	return StreamMessage{ID: m.ID, Data: []byte(dataStr)}, nil
}
