package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/dukerupert/kinship/internal/model"
)

func TestCreateAndListPosts(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")

	rec := serve(t, e.posts.Create, call{method: "POST", target: "/api/posts", as: &ruth,
		body: map[string]string{"content": " Dinner at six "}})
	wantStatus(t, rec, http.StatusCreated)
	p := decode[model.Post](t, rec)
	if p.Type != model.PostDiscussion || p.Content != "Dinner at six" || p.AuthorName != "ruth" {
		t.Errorf("post = %+v", p)
	}

	rec = serve(t, e.posts.List, call{method: "GET", target: "/api/posts", as: &ruth})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Post](t, rec); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("posts = %+v", got)
	}
}

func TestCreatePostRejectsUnknownType(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")

	rec := serve(t, e.posts.Create, call{method: "POST", target: "/", as: &ruth,
		body: map[string]string{"content": "hi", "type": "gossip"}})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestAnnouncementsAreAdminOnly(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)
	body := map[string]string{"content": "Reunion is on!", "type": model.PostAnnouncement}

	rec := serve(t, e.posts.Create, call{method: "POST", target: "/", as: &eli, body: body})
	wantStatus(t, rec, http.StatusForbidden)

	rec = serve(t, e.posts.Create, call{method: "POST", target: "/", as: &ruth, body: body})
	wantStatus(t, rec, http.StatusCreated)

	notes, err := e.notes.ListForAccount(context.Background(), ruth.FamilyID, eli.AccountID, model.MaxNotifications)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "New Announcement" || notes[0].Message != "Reunion is on!" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestLikeToggles(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)
	p := decode[model.Post](t, serve(t, e.posts.Create, call{method: "POST", target: "/", as: &ruth,
		body: map[string]string{"content": "Pray for Ada", "type": model.PostPrayerRequest}}))
	path := map[string]string{"id": p.ID}

	for i, want := range []bool{true, false, true} {
		rec := serve(t, e.posts.Like, call{method: "POST", target: "/", as: &eli, path: path})
		wantStatus(t, rec, http.StatusOK)
		if got := decode[map[string]bool](t, rec)["liked"]; got != want {
			t.Errorf("toggle %d: liked = %v, want %v", i+1, got, want)
		}
	}
}

func TestCommentOnPost(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)
	p := decode[model.Post](t, serve(t, e.posts.Create, call{method: "POST", target: "/", as: &ruth,
		body: map[string]string{"content": "Photos from the lake"}}))

	rec := serve(t, e.posts.Comment, call{method: "POST", target: "/", as: &eli,
		path: map[string]string{"id": p.ID}, body: map[string]string{"content": "Lovely!"}})
	wantStatus(t, rec, http.StatusCreated)
	c := decode[model.Comment](t, rec)
	if c.AuthorName != "eli" || c.PostID != p.ID {
		t.Errorf("comment = %+v", c)
	}

	rec = serve(t, e.posts.Comment, call{method: "POST", target: "/", as: &eli,
		path: map[string]string{"id": p.ID}, body: map[string]string{"content": ""}})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestPostsInOtherFamiliesAreHidden(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	ada := e.founder(t, "ada")
	p := decode[model.Post](t, serve(t, e.posts.Create, call{method: "POST", target: "/", as: &ruth,
		body: map[string]string{"content": "family only"}}))
	path := map[string]string{"id": p.ID}

	wantStatus(t, serve(t, e.posts.Like, call{method: "POST", target: "/", as: &ada, path: path}), http.StatusNotFound)
	wantStatus(t, serve(t, e.posts.Comment, call{method: "POST", target: "/", as: &ada, path: path,
		body: map[string]string{"content": "hi"}}), http.StatusNotFound)
	wantStatus(t, serve(t, e.posts.Like, call{method: "POST", target: "/", as: &ada,
		path: map[string]string{"id": "missing"}}), http.StatusNotFound)

	rec := serve(t, e.posts.List, call{method: "GET", target: "/", as: &ada})
	if got := decode[[]model.Post](t, rec); len(got) != 0 {
		t.Errorf("ada sees %d posts, want 0", len(got))
	}
}
