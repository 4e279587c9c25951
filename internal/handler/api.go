package handler

import (
	"github.com/moodlink/internal/logger"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	users     *service.UserService
	moods     *service.MoodService
	tokens    *service.TokenService
	log       *logger.Logger
	uploadDir string
	uploadURL string
}

const devTokenSecret = "moodlink-dev-secret"

// Options 描述构造 API 时可选的依赖
type Options struct {
	Engine    *mood.Engine
	Bands     mood.InsightBands
	Tokens    *service.TokenService
	Logger    *logger.Logger
	UploadDir string
	UploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = service.NewTokenService(devTokenSecret, 0)
	}
	bands := opts.Bands
	if bands == (mood.InsightBands{}) {
		bands = mood.DefaultInsightBands()
	}

	return &API{
		db:        gdb,
		users:     service.NewUserService(gdb),
		moods:     service.NewMoodService(gdb, opts.Engine, bands),
		tokens:    tokens,
		log:       log,
		uploadDir: opts.UploadDir,
		uploadURL: opts.UploadURL,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
