package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
)

func TestPostCreateAndGet(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fam := f.family(t, "A")
	author := f.member(t, "eli", fam.ID)

	p, err := f.posts.Create(ctx, fam.ID, author.ID, author.DisplayName, "hello", model.PostDiscussion)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if p.Content != "hello" || p.Type != model.PostDiscussion {
		t.Errorf("got %q/%q", p.Content, p.Type)
	}
	if p.Likes == nil || len(p.Likes) != 0 {
		t.Errorf("likes = %v, want empty non-nil", p.Likes)
	}
	if p.Comments == nil || len(p.Comments) != 0 {
		t.Errorf("comments = %v, want empty non-nil", p.Comments)
	}
	if n := f.feed.count(realtime.TablePosts, fam.ID); n != 1 {
		t.Errorf("post changes = %d, want 1", n)
	}
}

func TestPostInvalidType(t *testing.T) {
	f := setupTestDB(t)
	fam := f.family(t, "A")
	author := f.member(t, "eli", fam.ID)

	_, err := f.posts.Create(context.Background(), fam.ID, author.ID, "eli", "x", "gossip")
	if err == nil {
		t.Fatal("expected error for invalid post type")
	}
}

func TestListByFamilyNewestFirstAndCapped(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fam := f.family(t, "A")
	other := f.family(t, "B")
	author := f.member(t, "eli", fam.ID)

	for i := 0; i < model.MaxFeedPosts+5; i++ {
		if _, err := f.posts.Create(ctx, fam.ID, author.ID, "eli", fmt.Sprintf("post %d", i), model.PostDiscussion); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}
	outsider := f.member(t, "outsider", other.ID)
	f.posts.Create(ctx, other.ID, outsider.ID, "outsider", "elsewhere", model.PostDiscussion)

	posts, err := f.posts.ListByFamily(ctx, fam.ID, model.MaxFeedPosts)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != model.MaxFeedPosts {
		t.Fatalf("got %d posts, want %d", len(posts), model.MaxFeedPosts)
	}
	if posts[0].Content != fmt.Sprintf("post %d", model.MaxFeedPosts+4) {
		t.Errorf("first post = %q, want newest", posts[0].Content)
	}
	for _, p := range posts {
		if p.FamilyID != fam.ID {
			t.Errorf("post %s from family %s leaked into feed", p.ID, p.FamilyID)
		}
	}
}

func TestListByFamilyEmpty(t *testing.T) {
	f := setupTestDB(t)
	fam := f.family(t, "A")

	posts, err := f.posts.ListByFamily(context.Background(), fam.ID, model.MaxFeedPosts)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
}

func TestLikesAndHydration(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fam := f.family(t, "A")
	eli := f.member(t, "eli", fam.ID)
	ruth := f.member(t, "ruth", fam.ID)

	p, _ := f.posts.Create(ctx, fam.ID, eli.ID, "eli", "hello", model.PostDiscussion)
	q, _ := f.posts.Create(ctx, fam.ID, eli.ID, "eli", "second", model.PostDiscussion)

	if err := f.posts.AddLike(ctx, p.ID, eli.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := f.posts.AddLike(ctx, p.ID, ruth.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := f.posts.AddLike(ctx, p.ID, ruth.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate like: err = %v, want conflict", err)
	}

	liked, err := f.posts.HasLike(ctx, p.ID, ruth.ID)
	if err != nil || !liked {
		t.Errorf("HasLike = %v, %v; want true", liked, err)
	}

	posts, _ := f.posts.ListByFamily(ctx, fam.ID, model.MaxFeedPosts)
	byID := map[string]model.Post{}
	for _, post := range posts {
		byID[post.ID] = post
	}
	if got := byID[p.ID].Likes; len(got) != 2 {
		t.Errorf("likes = %v, want 2 entries", got)
	}
	if got := byID[q.ID].Likes; len(got) != 0 {
		t.Errorf("unliked post likes = %v, want empty", got)
	}

	if err := f.posts.RemoveLike(ctx, p.ID, ruth.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	got, _ := f.posts.GetByID(ctx, p.ID)
	if got.LikedBy(ruth.ID) {
		t.Error("ruth still in like set after removal")
	}
	if !got.LikedBy(eli.ID) {
		t.Error("eli missing from like set")
	}
	if n := f.feed.count(realtime.TablePostLikes, fam.ID); n != 3 {
		t.Errorf("like changes = %d, want 3", n)
	}
}

func TestLikeMissingPost(t *testing.T) {
	f := setupTestDB(t)
	fam := f.family(t, "A")
	eli := f.member(t, "eli", fam.ID)

	if err := f.posts.AddLike(context.Background(), "missing", eli.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCommentsOldestFirst(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fam := f.family(t, "A")
	eli := f.member(t, "eli", fam.ID)
	p, _ := f.posts.Create(ctx, fam.ID, eli.ID, "eli", "hello", model.PostPrayerRequest)

	for _, text := range []string{"one", "two", "three"} {
		c, err := f.posts.AddComment(ctx, p.ID, eli.ID, "eli", text)
		if err != nil {
			t.Fatalf("add comment: %v", err)
		}
		if c.PostID != p.ID {
			t.Errorf("post_id = %q, want %q", c.PostID, p.ID)
		}
	}

	got, err := f.posts.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("got %d comments, want 3", len(got.Comments))
	}
	if got.Comments[0].Content != "one" || got.Comments[2].Content != "three" {
		t.Errorf("comments out of order: %q .. %q", got.Comments[0].Content, got.Comments[2].Content)
	}
	if n := f.feed.count(realtime.TableComments, fam.ID); n != 3 {
		t.Errorf("comment changes = %d, want 3", n)
	}

	if _, err := f.posts.AddComment(ctx, "missing", eli.ID, "eli", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("comment on missing post: err = %v, want not found", err)
	}
}
