// Package feed keeps family collections in sync with the change feed. Each
// subscription re-fetches its whole collection whenever anything it watches
// changes and hands the fresh snapshot to the caller.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/dukerupert/kinship/internal/store"
)

// Notifier stores and fans out a notification.
type Notifier interface {
	Notify(ctx context.Context, familyID, title, message, category string, target *string) (*model.Notification, error)
}

// Disposer ends a subscription. After it returns the callback is never
// invoked again. It must not be called from inside the callback.
type Disposer func()

const announcementPreview = 100

type Synchronizer struct {
	hub      *realtime.Hub
	posts    *store.PostStore
	notes    *store.NotificationStore
	accounts *store.AccountStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewSynchronizer(hub *realtime.Hub, posts *store.PostStore, notes *store.NotificationStore, accounts *store.AccountStore, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		hub:      hub,
		posts:    posts,
		notes:    notes,
		accounts: accounts,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With("component", "feed"),
	}
}

// LoadPosts returns the family's newest posts, hydrated.
func (s *Synchronizer) LoadPosts(ctx context.Context, familyID string) ([]model.Post, error) {
	return s.posts.ListByFamily(ctx, familyID, model.MaxFeedPosts)
}

// LoadNotifications returns what accountID sees in familyID, newest first.
func (s *Synchronizer) LoadNotifications(ctx context.Context, familyID, accountID string) ([]model.Notification, error) {
	return s.notes.ListForAccount(ctx, familyID, accountID, model.MaxNotifications)
}

// SubscribePosts delivers the family's post list now and after every change
// to its posts, likes or comments.
func (s *Synchronizer) SubscribePosts(familyID string, onChange func([]model.Post)) Disposer {
	topics := []realtime.Topic{
		{Table: realtime.TablePosts, FamilyID: familyID},
		{Table: realtime.TablePostLikes, FamilyID: familyID},
		{Table: realtime.TableComments, FamilyID: familyID},
	}
	return subscribe(s, "posts", topics, func(ctx context.Context) ([]model.Post, error) {
		return s.LoadPosts(ctx, familyID)
	}, onChange)
}

// SubscribeNotifications delivers accountID's notification list now and
// after every notification change in the family.
func (s *Synchronizer) SubscribeNotifications(familyID, accountID string, onChange func([]model.Notification)) Disposer {
	topics := []realtime.Topic{{Table: realtime.TableNotifications, FamilyID: familyID}}
	return subscribe(s, "notifications", topics, func(ctx context.Context) ([]model.Notification, error) {
		return s.LoadNotifications(ctx, familyID, accountID)
	}, onChange)
}

// SubscribeAccount delivers the account's profile now and after every change
// to it. A profile that cannot be loaded is delivered as nil.
func (s *Synchronizer) SubscribeAccount(accountID string, onChange func(*model.Account)) Disposer {
	topics := []realtime.Topic{{Table: realtime.TableAccounts, RowID: accountID}}
	return subscribe(s, "account", topics, func(ctx context.Context) (*model.Account, error) {
		return s.accounts.GetByID(ctx, accountID)
	}, onChange, withZeroOnError())
}

// SubscribeLeaderboard delivers the family leaderboard now and after every
// change to a family account.
func (s *Synchronizer) SubscribeLeaderboard(familyID string, onChange func([]model.LeaderboardEntry)) Disposer {
	topics := []realtime.Topic{{Table: realtime.TableAccounts, FamilyID: familyID}}
	return subscribe(s, "leaderboard", topics, func(ctx context.Context) ([]model.LeaderboardEntry, error) {
		return s.accounts.Leaderboard(ctx, familyID, model.LeaderboardSize)
	}, onChange)
}

type subscribeOptions struct {
	zeroOnError bool
}

type subscribeOption func(*subscribeOptions)

// withZeroOnError delivers the zero value when a resync fails.
func withZeroOnError() subscribeOption {
	return func(o *subscribeOptions) { o.zeroOnError = true }
}

// subscribe wires a resync loop: every signal re-runs load and, on success,
// passes the result to onChange. Failed resyncs are logged and skipped unless
// withZeroOnError is given.
func subscribe[T any](s *Synchronizer, collection string, topics []realtime.Topic, load func(context.Context) (T, error), onChange func(T), opts ...subscribeOption) Disposer {
	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}

	sub := s.hub.Subscribe(topics, func() {
		v, err := load(context.Background())
		s.metrics.Resync(collection, err)
		if err != nil {
			s.logger.Warn("resync failed", "collection", collection, "error", err)
			if !o.zeroOnError {
				return
			}
			var zero T
			v = zero
		}
		onChange(v)
	})
	s.metrics.SubscriptionOpened(collection)
	sub.Trigger()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.Close()
			s.metrics.SubscriptionClosed(collection)
		})
	}
}

// ToggleLike removes accountID's like when present and adds it otherwise. It
// reports whether the post is liked afterwards. The check and the write are
// separate statements, so two concurrent toggles can race.
func (s *Synchronizer) ToggleLike(ctx context.Context, postID, accountID string) (bool, error) {
	liked, err := s.posts.HasLike(ctx, postID, accountID)
	if err != nil {
		return false, err
	}
	if liked {
		if err := s.posts.RemoveLike(ctx, postID, accountID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.posts.AddLike(ctx, postID, accountID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Synchronizer) AddComment(ctx context.Context, postID, accountID, displayName, content string) (*model.Comment, error) {
	return s.posts.AddComment(ctx, postID, accountID, displayName, content)
}

// CreatePost publishes a post. Announcements also notify the family; a
// notification failure is logged and does not fail the post.
func (s *Synchronizer) CreatePost(ctx context.Context, familyID, authorID, authorName, content, postType string) (*model.Post, error) {
	p, err := s.posts.Create(ctx, familyID, authorID, authorName, content, postType)
	if err != nil {
		return nil, err
	}

	if postType == model.PostAnnouncement && s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, familyID, "New Announcement", preview(content), model.NotifyAnnouncement, nil); err != nil {
			s.logger.Warn("announcement notification", "family_id", familyID, "post_id", p.ID, "error", err)
		}
	}
	return p, nil
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	r := []rune(content)
	if len(r) <= announcementPreview {
		return content
	}
	return string(r[:announcementPreview])
}
