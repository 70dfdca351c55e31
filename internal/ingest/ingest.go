// Package ingest persists pushed video/transcript payloads using a pool
// of background workers.
//
// The service never talks to YouTube itself. An upstream collaborator
// (a poller or a WebSub-triggered fetcher) pushes payloads to the ingest
// endpoints; handlers enqueue one job per video, and the workers here
// write channels, videos, transcripts, and fetch errors into the store
// the search core reads from.
//
// Go Pattern: a buffered channel as the job queue, N worker goroutines
// ranging over it, sync.WaitGroup + context cancellation for graceful
// shutdown.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tubescribe/tubescribe-api/internal/database"
	"github.com/tubescribe/tubescribe-api/internal/models"
)

// Job is one queued video payload. ID is assigned at submission time and
// only used for log correlation.
type Job struct {
	ID        string
	Payload   models.IngestVideoPayload
	CreatedAt time.Time
}

// Pool manages the ingest worker goroutines.
type Pool struct {
	jobs    chan Job
	workers int
	db      *database.DB

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates an ingest pool writing through the given store.
func NewPool(workers, queueSize int, db *database.DB) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		db:      db,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d ingest workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully shuts down all workers: cancel, close the queue, and
// wait for the remaining jobs to drain.
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping ingest workers...")
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	log.Println("✅ All ingest workers stopped")
}

// Submit adds a job to the queue without blocking. Returns an error when
// the queue is full so the handler can tell the pusher to back off.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return fmt.Errorf("ingest queue is full; try again later")
	}
}

// QueueSize returns the current number of queued jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			log.Printf("👷 Ingest worker %d shutting down", id)
			return
		default:
		}

		if err := p.processVideo(job); err != nil {
			log.Printf("❌ Ingest worker %d: job %s (video %s) failed: %v", id, job.ID, job.Payload.VideoID, err)
		}
	}
}

// processVideo persists one payload: upsert the video under its channel,
// then either store the transcript or record the fetch error.
func (p *Pool) processVideo(job Job) error {
	ctx := p.ctx
	payload := job.Payload

	channel, err := p.db.GetChannel(ctx, payload.ChannelID)
	if err != nil {
		return fmt.Errorf("unknown channel %s: %w", payload.ChannelID, err)
	}

	video := &models.Video{
		ChannelRowID: channel.ID,
		VideoID:      payload.VideoID,
		Title:        payload.Title,
		Description:  payload.Description,
		PublishedAt:  payload.PublishedAt,
		ThumbnailURL: payload.ThumbnailURL,
	}
	if err := p.db.UpsertVideo(ctx, video); err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	if len(payload.Segments) > 0 {
		transcript := &models.Transcript{
			VideoRowID:   video.ID,
			Text:         BuildFullText(payload.Segments),
			Segments:     payload.Segments,
			LanguageCode: payload.LanguageCode,
			IsGenerated:  payload.IsGenerated,
		}
		inserted, err := p.db.CreateTranscript(ctx, transcript)
		if err != nil {
			return err
		}
		if inserted {
			// Earlier fetch failures are moot once the transcript lands.
			if err := p.db.ClearTranscriptErrors(ctx, video.ID); err != nil {
				return err
			}
			log.Printf("📝 Transcript stored for video %s (%d segments)", video.VideoID, len(payload.Segments))
		}
		return nil
	}

	if payload.FetchError != nil {
		return p.db.RecordTranscriptError(ctx, &models.TranscriptError{
			VideoRowID:   video.ID,
			ErrorType:    payload.FetchError.ErrorType,
			ErrorMessage: payload.FetchError.ErrorMessage,
		})
	}

	return nil
}

// BuildFullText joins segment texts with single spaces, in order. This is
// the exact construction the snippet locator's offset walk assumes —
// segments are never trimmed or re-spaced here.
func BuildFullText(segments models.Segments) string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return strings.Join(texts, " ")
}
