package handler

import (
	"net/http"
	"testing"

	"github.com/dukerupert/kinship/internal/model"
)

func TestCreateFamilyMakesCallerAdmin(t *testing.T) {
	e := setup(t)
	ac := e.account(t, "ruth")

	rec := serve(t, e.family.Create, call{method: "POST", target: "/api/families", as: &ac,
		body: map[string]string{"name": "  Smiths ", "description": "Sunday dinners"}})
	wantStatus(t, rec, http.StatusCreated)
	f := decode[model.Family](t, rec)
	if f.Name != "Smiths" || f.MemberCount != 1 {
		t.Errorf("family = %+v", f)
	}

	after := e.reload(t, ac.AccountID)
	if after.FamilyID != f.ID || after.Role != model.RoleAdmin {
		t.Errorf("creator = %+v, want admin of %s", after, f.ID)
	}
}

func TestCreateFamilyRequiresName(t *testing.T) {
	e := setup(t)
	ac := e.account(t, "ruth")

	rec := serve(t, e.family.Create, call{method: "POST", target: "/", as: &ac, body: map[string]string{"name": " "}})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestJoinFamily(t *testing.T) {
	e := setup(t)
	admin := e.founder(t, "ruth")
	eli := e.account(t, "eli")

	rec := serve(t, e.family.Join, call{method: "POST", target: "/", as: &eli, path: map[string]string{"id": admin.FamilyID}})
	wantStatus(t, rec, http.StatusOK)
	got := decode[model.Account](t, rec)
	if !got.InFamily(admin.FamilyID) {
		t.Errorf("account = %+v, want joined", got)
	}

	rec = serve(t, e.family.Get, call{method: "GET", target: "/", as: &eli, path: map[string]string{"id": admin.FamilyID}})
	wantStatus(t, rec, http.StatusOK)
	if f := decode[model.Family](t, rec); f.MemberCount != 2 {
		t.Errorf("member count = %d, want 2", f.MemberCount)
	}
}

func TestJoinUnknownFamily(t *testing.T) {
	e := setup(t)
	eli := e.account(t, "eli")

	rec := serve(t, e.family.Join, call{method: "POST", target: "/", as: &eli, path: map[string]string{"id": "missing"}})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestListFamilies(t *testing.T) {
	e := setup(t)
	e.founder(t, "ruth")
	e.founder(t, "eli")
	viewer := e.account(t, "ada")

	rec := serve(t, e.family.List, call{method: "GET", target: "/", as: &viewer})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Family](t, rec); len(got) != 2 {
		t.Errorf("families = %d, want 2", len(got))
	}
}

func TestMembersOnlyForOwnFamily(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	e.member(t, "eli", ruth.FamilyID)
	outsider := e.founder(t, "ada")

	rec := serve(t, e.family.Members, call{method: "GET", target: "/", as: &ruth, path: map[string]string{"id": ruth.FamilyID}})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Account](t, rec); len(got) != 2 {
		t.Errorf("members = %d, want 2", len(got))
	}

	rec = serve(t, e.family.Members, call{method: "GET", target: "/", as: &outsider, path: map[string]string{"id": ruth.FamilyID}})
	wantStatus(t, rec, http.StatusForbidden)
}

func TestPromoteCapsAdmins(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)
	ada := e.member(t, "ada", ruth.FamilyID)
	path := map[string]string{"id": ruth.FamilyID}

	rec := serve(t, e.family.Promote, call{method: "POST", target: "/", as: &ruth, path: path,
		body: map[string]string{"account_id": eli.AccountID}})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[model.Account](t, rec); got.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}

	rec = serve(t, e.family.Promote, call{method: "POST", target: "/", as: &ruth, path: path,
		body: map[string]string{"account_id": ada.AccountID}})
	wantStatus(t, rec, http.StatusForbidden)
	if body := decode[map[string]string](t, rec); body["error"] != "max admins reached" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestPromoteRequiresAdminOfFamily(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	eli := e.member(t, "eli", ruth.FamilyID)
	other := e.founder(t, "ada")
	path := map[string]string{"id": ruth.FamilyID}

	rec := serve(t, e.family.Promote, call{method: "POST", target: "/", as: &eli, path: path,
		body: map[string]string{"account_id": eli.AccountID}})
	wantStatus(t, rec, http.StatusForbidden)

	rec = serve(t, e.family.Promote, call{method: "POST", target: "/", as: &other, path: path,
		body: map[string]string{"account_id": eli.AccountID}})
	wantStatus(t, rec, http.StatusForbidden)
}

func TestPromoteOutsider(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")
	stranger := e.account(t, "eli")

	rec := serve(t, e.family.Promote, call{method: "POST", target: "/", as: &ruth, path: map[string]string{"id": ruth.FamilyID},
		body: map[string]string{"account_id": stranger.AccountID}})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestJoinDropsAdminRole(t *testing.T) {
	e := setup(t)
	target := e.founder(t, "ruth")
	intruder := e.founder(t, "eli")

	rec := serve(t, e.family.Join, call{method: "POST", target: "/", as: &intruder, path: map[string]string{"id": target.FamilyID}})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[model.Account](t, rec); got.Role != model.RoleMember {
		t.Errorf("role = %q after joining another family, want member", got.Role)
	}
}
