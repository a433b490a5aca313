package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"slotbook/config"
	"slotbook/services/booking"
	"slotbook/services/tasks"

	"github.com/hibiken/asynq"
)

// InitExpiryWorker runs the async worker in background. It sweeps bookings
// whose authorization window elapsed without a provider decision.
func InitExpiryWorker(engine booking.Engine) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisExpiryQueue,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingExpire, handleExpiryTask(engine))

	go func() {
		log.Println("[ExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleExpiryTask(engine booking.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.ExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ExpiryHandler] invalid payload: %v", err)
			return err
		}

		// A booking already decided by either party is a no-op here; the
		// returned error is only for genuinely transient failures so asynq
		// retries them.
		if err := engine.ExpireIfPending(ctx, p.BookingID); err != nil {
			log.Printf("[ExpiryHandler] failed to expire booking %s: %v", p.BookingID, err)
			return err
		}
		return nil
	}
}
