// Package scheduler publishes queued channel posts. A cron tick collects
// due posts; a small worker pool sends them through the bot.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/robfig/cron/v3"

	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type Scheduler struct {
	posts     types.PostStore
	botClient *bot.Bot
	channelID int64
	workers   int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	cron  *cron.Cron
	queue chan types.ScheduledPost

	inFlight   map[string]struct{}
	inFlightMu sync.Mutex
}

type Config struct {
	Workers   int
	ChannelID int64
	// PollSpec is a cron expression for the due-post poll.
	PollSpec string
}

func NewScheduler(posts types.PostStore, botClient *bot.Bot, cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollSpec == "" {
		cfg.PollSpec = "@every 1m"
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		posts:     posts,
		botClient: botClient,
		channelID: cfg.ChannelID,
		workers:   cfg.Workers,
		ctx:       ctx,
		cancel:    cancel,
		cron:      cron.New(),
		queue:     make(chan types.ScheduledPost, cfg.Workers*4),
		inFlight:  make(map[string]struct{}),
	}

	if _, err := s.cron.AddFunc(cfg.PollSpec, s.pollDuePosts); err != nil {
		logger.Errorf("scheduler: bad poll spec %q: %v", cfg.PollSpec, err)
	}
	return s
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	logger.Infof("scheduler started with %d workers", s.workers)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.cron.Start()

	// Pick up posts that came due while the process was down.
	go s.pollDuePosts()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	logger.Info("stopping scheduler...")
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) pollDuePosts() {
	posts, err := s.posts.DuePosts(time.Now().UTC(), 20)
	if err != nil {
		logger.Errorf("scheduler: list due posts: %v", err)
		return
	}

	for _, post := range posts {
		s.inFlightMu.Lock()
		if _, exists := s.inFlight[post.ID]; exists {
			s.inFlightMu.Unlock()
			continue
		}
		s.inFlight[post.ID] = struct{}{}
		s.inFlightMu.Unlock()

		select {
		case s.queue <- post:
		case <-s.ctx.Done():
			return
		default:
			// Queue full; the next tick retries.
			s.release(post.ID)
		}
	}
}

func (s *Scheduler) release(postID string) {
	s.inFlightMu.Lock()
	delete(s.inFlight, postID)
	s.inFlightMu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case post := <-s.queue:
			s.publish(post)
			s.release(post.ID)
		}
	}
}

func (s *Scheduler) publish(post types.ScheduledPost) {
	err := s.sendPost(post)
	if err != nil {
		// One immediate retry; persistent failures are parked as failed.
		time.Sleep(2 * time.Second)
		err = s.sendPost(post)
	}

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"post_id": post.ID,
		}).Errorf("publish failed: %v", err)
		if markErr := s.posts.MarkFailed(post.ID, err.Error()); markErr != nil {
			logger.Errorf("mark post %s failed: %v", post.ID, markErr)
		}
		return
	}

	if err := s.posts.MarkPublished(post.ID, time.Now().UTC()); err != nil {
		logger.Errorf("mark post %s published: %v", post.ID, err)
	}
	logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"title":   post.Title,
	}).Info("post published")
}

func (s *Scheduler) sendPost(post types.ScheduledPost) error {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	if post.PhotoFileID != "" {
		_, err := s.botClient.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    s.channelID,
			Photo:     &models.InputFileString{Data: post.PhotoFileID},
			Caption:   post.Body,
			ParseMode: messages.ParseModeHTML,
		})
		return err
	}

	_, err := s.botClient.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.channelID,
		Text:      post.Body,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}
