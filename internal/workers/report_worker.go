package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/reports"
	"github.com/matias-olea/inmobrain/internal/utils"
)

// claimMinIdle is how long a pending entry must sit unacked before another
// consumer may claim it. Covers both crashed consumers and jobs whose
// terminal write failed.
const claimMinIdle = time.Minute

// ReportWorkerPool consumes report jobs from a Redis stream through a
// consumer group and publishes lifecycle updates on the report's status
// channel. A job is acked only once its row holds a terminal status; jobs
// whose terminal write failed stay pending and are reclaimed later, so no
// report remains in generating without a consumer responsible for it.
type ReportWorkerPool struct {
	Redis      *redis.Client
	Generator  *reports.Generator
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ReportWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Generator == nil {
		return errors.New("ReportWorkerPool missing dependency: Redis/Generator must be set")
	}
	if p.Stream == "" {
		p.Stream = "reports:stream"
	}
	if p.Group == "" {
		p.Group = "report-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ReportWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.claimStale(ctx, consumer)

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.process(ctx, msg)
			}
		}
	}
}

// claimStale takes over pending entries whose consumer never acked them and
// runs them again. Run is idempotent on terminal rows, so replaying a job
// that did complete only re-reads the row.
func (p *ReportWorkerPool) claimStale(ctx context.Context, consumer string) {
	msgs, _, err := p.Redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   p.Stream,
		Group:    p.Group,
		Consumer: consumer,
		MinIdle:  claimMinIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil || len(msgs) == 0 {
		return
	}
	for _, msg := range msgs {
		p.process(ctx, msg)
	}
}

// process runs one job and acks it only when the report row reached a
// terminal status. An unacked entry stays pending for the claim pass.
func (p *ReportWorkerPool) process(ctx context.Context, msg redis.XMessage) {
	if err := p.handleMsg(ctx, msg); err != nil {
		return
	}
	_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
}

func (p *ReportWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) error {
	reportID := ""
	if v, ok := msg.Values["report_id"]; ok {
		reportID, _ = v.(string)
	}
	if reportID == "" {
		// malformed entry, acking is the only way to drop it
		return nil
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":  msg.ID,
		"report_id": reportID,
	})

	statusCh := "report:" + reportID + ":status"
	p.publishStatus(ctx, statusCh, models.ReportGenerating, "")

	start := time.Now()
	status, err := p.Generator.Run(ctx, reportID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// row deleted from under the job; retrying cannot help
			log.Warn("report row not found, dropping job")
			return nil
		}
		// repository write failed; keep the entry pending so the claim
		// pass replays it once the store recovers
		log.WithError(err).Error("report generation could not persist an outcome")
		p.publishStatus(ctx, statusCh, models.ReportFailed, "error interno al generar el reporte")
		return err
	}

	log.WithFields(logrus.Fields{
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("report job finished")
	p.publishStatus(ctx, statusCh, status, "")
	return nil
}

func (p *ReportWorkerPool) publishStatus(ctx context.Context, channel string, status models.ReportStatus, message string) {
	payload, _ := json.Marshal(map[string]any{
		"type":    "report_status",
		"status":  status,
		"message": message,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	})
	_ = p.Redis.Publish(ctx, channel, string(payload)).Err()
}
