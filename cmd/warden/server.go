package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/chatwarden/chatwarden/moderation"
	"github.com/chatwarden/chatwarden/vkapi"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	logger  *slog.Logger
	engine  *moderation.Engine
	client  *vkapi.Client
	rdb     *redis.Client
	groupID int64

	lastTS atomic.Pointer[string]
}

type Config struct {
	GroupID  int64
	RedisURL string
	Logger   *slog.Logger
}

func NewServer(engine *moderation.Engine, client *vkapi.Client, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var rdb *redis.Client
	if config.RedisURL != "" {
		// generic client, for cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}
	}

	s := &Server{
		logger:  logger,
		engine:  engine,
		client:  client,
		rdb:     rdb,
		groupID: config.GroupID,
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

var cursorKey = "warden/ts"

func (s *Server) ReadLastCursor(ctx context.Context) (string, error) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		s.logger.Info("redis not configured, skipping cursor read")
		return "", nil
	}

	val, err := s.rdb.Get(ctx, cursorKey).Result()
	if err == redis.Nil {
		s.logger.Info("no pre-existing cursor in redis")
		return "", nil
	}
	s.logger.Info("successfully found prior long-poll cursor in redis", "ts", val)
	return val, err
}

func (s *Server) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	ts := s.cursor()
	if ts == "" {
		return nil
	}
	err := s.rdb.Set(ctx, cursorKey, ts, 14*24*time.Hour).Err()
	return err
}

func (s *Server) cursor() string {
	p := s.lastTS.Load()
	if p == nil {
		return ""
	}
	return *p
}

// this method runs in a loop, persisting the current cursor state every 5 seconds
func (s *Server) RunPersistCursor(ctx context.Context) error {

	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	for {
		select {
		case <-ctx.Done():
			if ts := s.cursor(); ts != "" {
				s.logger.Info("persisting final cursor ts value", "ts", ts)
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "ts", ts)
				}
			}
			return nil
		case <-ticker.C:
			if ts := s.cursor(); ts != "" {
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "ts", ts)
				}
			}
		}
	}
}
