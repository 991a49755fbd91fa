package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/config"
	"github.com/dukerupert/kinship/internal/family"
	"github.com/dukerupert/kinship/internal/feed"
	"github.com/dukerupert/kinship/internal/handler"
	"github.com/dukerupert/kinship/internal/media"
	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/middleware"
	"github.com/dukerupert/kinship/internal/notify"
	"github.com/dukerupert/kinship/internal/push"
	"github.com/dukerupert/kinship/internal/quiz"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/dukerupert/kinship/internal/store"
	ws "github.com/dukerupert/kinship/internal/websocket"
)

type Server struct {
	cfg      *config.Config
	changes  *realtime.Hub
	live     *ws.Hub
	syncer   *feed.Synchronizer
	fanout   *notify.Fanout
	tokens   *auth.Tokens
	accounts *store.AccountStore
	objects  media.ObjectStore
	metrics  *metrics.Metrics

	authH   *handler.AuthHandler
	familyH *handler.FamilyHandler
	postH   *handler.PostHandler
	mediaH  *handler.MediaHandler
	notifH  *handler.NotificationHandler
	quizH   *handler.QuizHandler
	pushH   *handler.PushHandler

	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires stores, services and handlers around db. Push delivery is
// enabled when cfg carries VAPID keys.
func New(db *sql.DB, cfg *config.Config, objects media.ObjectStore, m *metrics.Metrics, logger *slog.Logger) *Server {
	changes := realtime.NewHub(logger.With("component", "realtime"))

	accounts := store.NewAccountStore(db, changes)
	families := store.NewFamilyStore(db, changes)
	posts := store.NewPostStore(db, changes)
	items := store.NewMediaStore(db, changes)
	notes := store.NewNotificationStore(db, changes)
	questions := store.NewQuizStore(db, changes)
	devices := store.NewPushStore(db)

	// Push notification service
	var pushSvc *push.Service
	var sender notify.Sender
	var pushH *handler.PushHandler
	if cfg.PushEnabled() {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber)
		sender = pushSvc
		pushH = handler.NewPushHandler(devices, pushSvc, logger.With("component", "push_handler"))
	}

	fanout := notify.NewFanout(notes, devices, sender, m, logger)
	familySvc := family.NewService(accounts, families, logger)
	syncer := feed.NewSynchronizer(changes, posts, notes, accounts, fanout, m, logger)
	engine := quiz.NewEngine(questions, accounts, m, logger)
	uploader := media.NewUploader(objects, items, m, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		cfg:      cfg,
		changes:  changes,
		live:     ws.NewHub(logger.With("component", "websocket")),
		syncer:   syncer,
		fanout:   fanout,
		tokens:   tokens,
		accounts: accounts,
		objects:  objects,
		metrics:  m,

		authH:   handler.NewAuthHandler(accounts, familySvc, tokens, cfg.SecureCookies, logger.With("component", "auth")),
		familyH: handler.NewFamilyHandler(familySvc, accounts, logger.With("component", "family_handler")),
		postH:   handler.NewPostHandler(syncer, posts, logger.With("component", "post_handler")),
		mediaH:  handler.NewMediaHandler(uploader, fanout, logger.With("component", "media_handler")),
		notifH:  handler.NewNotificationHandler(syncer, notes, logger.With("component", "notification_handler")),
		quizH:   handler.NewQuizHandler(engine, quiz.NewRounds(engine), logger.With("component", "quiz_handler")),
		pushH:   pushH,

		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Fanout returns the notification fanout so shutdown can wait for deliveries.
func (s *Server) Fanout() *notify.Fanout {
	return s.fanout
}

// LiveHub returns the websocket client registry.
func (s *Server) LiveHub() *ws.Hub {
	return s.live
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(s.tokens, s.accounts)
	member := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireFamily(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireFamily(middleware.RequireAdmin(h)))
	}
	rateLimited := middleware.RateLimit(s.rateLimiter, s.cfg.LoginRateLimit, s.cfg.LoginRateWindow)

	// Public routes
	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("POST /api/auth/signup", rateLimited(http.HandlerFunc(s.authH.Signup)))
	mux.Handle("POST /api/auth/login", rateLimited(http.HandlerFunc(s.authH.Login)))
	if dir, ok := s.objects.(*media.DirStore); ok {
		mux.Handle("GET /media/", http.StripPrefix("/media", noListing(http.FileServer(http.Dir(dir.Root)))))
	}

	// Account routes
	mux.Handle("GET /api/me", authed(http.HandlerFunc(s.authH.Me)))
	mux.Handle("POST /api/auth/logout", authed(http.HandlerFunc(s.authH.Logout)))

	// Family routes
	mux.Handle("GET /api/families", authed(http.HandlerFunc(s.familyH.List)))
	mux.Handle("POST /api/families", authed(http.HandlerFunc(s.familyH.Create)))
	mux.Handle("GET /api/families/{id}", authed(http.HandlerFunc(s.familyH.Get)))
	mux.Handle("POST /api/families/{id}/join", authed(http.HandlerFunc(s.familyH.Join)))
	mux.Handle("GET /api/families/{id}/members", member(s.familyH.Members))
	mux.Handle("POST /api/families/{id}/admins", admin(s.familyH.Promote))

	// Feed routes
	mux.Handle("GET /api/posts", member(s.postH.List))
	mux.Handle("POST /api/posts", member(s.postH.Create))
	mux.Handle("POST /api/posts/{id}/like", member(s.postH.Like))
	mux.Handle("POST /api/posts/{id}/comments", member(s.postH.Comment))

	// Media routes
	mux.Handle("GET /api/media", member(s.mediaH.List))
	mux.Handle("POST /api/media", admin(s.mediaH.Upload))

	// Notification routes
	mux.Handle("GET /api/notifications", member(s.notifH.List))
	mux.Handle("POST /api/notifications/{id}/read", member(s.notifH.MarkRead))

	// Quiz routes
	mux.Handle("GET /api/quiz/question", member(s.quizH.Question))
	mux.Handle("POST /api/quiz/answer", member(s.quizH.Answer))
	mux.Handle("POST /api/quiz/next", member(s.quizH.Next))
	mux.Handle("GET /api/quiz/leaderboard", member(s.quizH.Leaderboard))

	// Push notification routes
	if s.pushH != nil {
		mux.Handle("POST /api/push/subscribe", member(s.pushH.Subscribe))
		mux.Handle("DELETE /api/push/subscriptions/{id}", authed(http.HandlerFunc(s.pushH.Unsubscribe)))
		mux.Handle("GET /api/push/subscriptions", authed(http.HandlerFunc(s.pushH.ListSubscriptions)))
		mux.Handle("GET /api/push/vapid-key", authed(http.HandlerFunc(s.pushH.VAPIDKey)))
	}

	// Live snapshots
	mux.Handle("GET /ws", authed(ws.Handler(s.live, s.syncer, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(middleware.Instrument(s.metrics)(mux))
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
