package publisher

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// StreamName carries one entry per published record.
const StreamName = "records.published.basketball"

// Streamer is the part of the Redis client the publisher uses.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RecordEvent is the stream payload.
type RecordEvent struct {
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	SourceURL     string    `json:"source_url"`
	Date          string    `json:"date"`
	Season        string    `json:"season"`
	Competition   string    `json:"competition"`
	Opponent      string    `json:"opponent"`
	IsHomeTeam    bool      `json:"is_home_team"`
	OwnScore      int       `json:"own_score"`
	OpponentScore int       `json:"opponent_score"`
	PublishedAt   time.Time `json:"published_at"`
}

// NewRecordEvent summarizes a publication.
func NewRecordEvent(p pipeline.Publication) RecordEvent {
	return RecordEvent{
		Title:         p.Title,
		Source:        p.Source,
		SourceURL:     p.SourceURL,
		Date:          p.Record.Date,
		Season:        p.Record.Season,
		Competition:   p.Record.Competition,
		Opponent:      p.Record.Opponent,
		IsHomeTeam:    p.Record.IsHomeTeam,
		OwnScore:      p.Record.OwnScore,
		OpponentScore: p.Record.OpponentScore,
		PublishedAt:   p.PublishedAt,
	}
}

// RedisStreamPublisher appends published records to a Redis stream.
type RedisStreamPublisher struct {
	client Streamer
	maxLen int64
	logger *logging.Logger
}

// NewRedisStreamPublisher creates a publisher from an existing client. The
// stream is trimmed to roughly maxLen entries; 0 keeps everything.
func NewRedisStreamPublisher(client Streamer, maxLen int64, logger *logging.Logger) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: maxLen,
		logger: logger.Component("publisher"),
	}
}

// PublishRecord appends one event and returns its stream id.
func (p *RedisStreamPublisher) PublishRecord(ctx context.Context, event RecordEvent) (string, error) {
	data, err := sonic.Marshal(event)
	if err != nil {
		return "", errors.Wrap(err, "encode record event")
	}

	args := &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]interface{}{
			"title":     event.Title,
			"data":      string(data),
			"timestamp": event.PublishedAt.Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", errors.Wrap(err, "xadd")
	}
	return id, nil
}

// Published implements pipeline.Observer.
func (p *RedisStreamPublisher) Published(ctx context.Context, pub pipeline.Publication) {
	if _, err := p.PublishRecord(ctx, NewRecordEvent(pub)); err != nil {
		p.logger.Warn("failed to publish record event", "title", pub.Title, "error", err)
	}
}
