// Package httpapi exposes topic search over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/types"
	"github.com/forPelevin/topicut/internal/usecase"
)

// DefaultTopic is searched when a request names none.
const DefaultTopic = "bitcoin"

// Searcher runs one topic search.
type Searcher interface {
	Run(ctx context.Context, in usecase.Input) (usecase.Output, error)
}

type Deps struct {
	Search Searcher
	// Status reports the configured backends for GET /api/v1/status.
	Status func() any
	Log    logrus.FieldLogger
	// RequestTimeout bounds one search. Zero means no extra bound.
	RequestTimeout time.Duration
}

type mentionsRequest struct {
	YouTubeURL      string `json:"youtube_url" validate:"required,max=2048"`
	Topic           string `json:"topic" validate:"max=200"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0,lte=3600"`
	MaxClips        int    `json:"max_clips" validate:"gte=0,lte=100"`
}

type server struct {
	d        Deps
	validate *validator.Validate
}

// New builds the fiber app. Routes:
//
//	GET  /health
//	GET  /api/v1/status
//	POST /api/v1/mentions
func New(d Deps) *fiber.App {
	if d.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Log = l
	}
	s := &server{d: d, validate: validator.New()}

	app := fiber.New(fiber.Config{
		AppName:               "topicut",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return respondWithError(c, code, err.Error())
		},
	})
	app.Use(recover.New())
	app.Use(requestLogger(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/status", s.status)
	v1.Post("/mentions", s.mentions)
	return app
}

func (s *server) status(c *fiber.Ctx) error {
	if s.d.Status == nil {
		return respondWithError(c, fiber.StatusServiceUnavailable, "status is not available")
	}
	return respondWithJSON(c, fiber.StatusOK, fiber.Map{"data": s.d.Status()})
}

func (s *server) mentions(c *fiber.Ctx) error {
	var req mentionsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "invalid JSON in request body")
	}
	req.YouTubeURL = strings.TrimSpace(req.YouTubeURL)
	if err := s.validate.Struct(req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, strings.Join(formatValidationErrors(err), "; "))
	}
	if strings.TrimSpace(req.Topic) == "" {
		req.Topic = DefaultTopic
	}

	ctx := c.UserContext()
	if s.d.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.d.RequestTimeout)
		defer cancel()
	}

	out, err := s.d.Search.Run(ctx, usecase.Input{
		URL:      req.YouTubeURL,
		Topic:    req.Topic,
		Duration: time.Duration(req.DurationSeconds) * time.Second,
		MaxClips: req.MaxClips,
	})
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return respondWithError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		return respondWithError(c, fiber.StatusNotFound, err.Error())
	case err != nil:
		s.d.Log.WithError(err).Error("topic search failed")
		return respondWithError(c, fiber.StatusInternalServerError, "internal server error")
	}

	res := out.Result
	return respondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video_info": res.Video,
		"topic_analysis": fiber.Map{
			"searched_topic":  res.Topic,
			"mentions_found":  len(res.Mentions),
			"mentions":        res.Mentions,
			"suggested_clips": res.Clips,
		},
		"transcript_summary": res.Summary,
		"transcript":         res.Transcript,
		"generated_at":       res.GeneratedAt,
	})
}
