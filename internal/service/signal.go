package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

const claimChannel = "spkkn:claims"

// SignalService fans committed claims out to realtime consumers over redis
// pub/sub. Publishing is best effort; the claim itself is already durable.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.ClaimEvent) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, claimChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams claim events to output until ctx is cancelled or input
// closes. Values received on input replace the word-prefix filter; an empty
// filter forwards everything.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ClaimEvent) {
	pubsub := s.rdb.Subscribe(ctx, claimChannel)
	defer pubsub.Close()

	var prefixes []string
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-input:
			if !ok {
				return
			}
			prefixes = p
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event domain.ClaimEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "discarding malformed claim event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			if !matchesPrefix(event.Word, prefixes) {
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func matchesPrefix(word string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(word, prefix) {
			return true
		}
	}
	return false
}
