package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/dukerupert/kinship/internal/model"
)

func TestNotificationsListAndMarkRead(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)

	broadcast, _ := e.notes.Create(ctx, ruth.FamilyID, nil, "Hello", "everyone", model.NotifyGeneral)
	private, _ := e.notes.Create(ctx, ruth.FamilyID, &ruth.AccountID, "Quiz", "you scored", model.NotifyQuiz)

	rec := serve(t, e.notifs.List, call{method: "GET", target: "/api/notifications", as: &eli})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Notification](t, rec); len(got) != 1 || got[0].ID != broadcast.ID {
		t.Errorf("eli sees %+v, want only the broadcast", got)
	}

	rec = serve(t, e.notifs.MarkRead, call{method: "POST", target: "/", as: &eli, path: map[string]string{"id": private.ID}})
	wantStatus(t, rec, http.StatusNotFound)

	rec = serve(t, e.notifs.MarkRead, call{method: "POST", target: "/", as: &eli, path: map[string]string{"id": broadcast.ID}})
	wantStatus(t, rec, http.StatusNoContent)

	got, _ := e.notes.GetByID(ctx, broadcast.ID)
	if !got.IsRead {
		t.Error("broadcast should be marked read")
	}
}

func TestMarkReadOtherFamily(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	ada := e.founder(t, "ada")
	n, _ := e.notes.Create(context.Background(), ruth.FamilyID, nil, "Hello", "family", model.NotifyGeneral)

	rec := serve(t, e.notifs.MarkRead, call{method: "POST", target: "/", as: &ada, path: map[string]string{"id": n.ID}})
	wantStatus(t, rec, http.StatusNotFound)
}
