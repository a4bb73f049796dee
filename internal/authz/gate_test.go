package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

func TestCanManage(t *testing.T) {
	gate := &Gate{}

	admin := db.User{Role: roleAdmin}
	schoolAdmin := db.User{Role: roleSchoolAdmin, SchoolPermissions: []int64{1, 3}}
	cultureAdmin := db.User{Role: roleCultureAdmin, CulturePermissions: []int64{7}}
	regular := db.User{Role: roleUser}

	cases := []struct {
		name     string
		user     db.User
		resource string
		id       int64
		want     bool
	}{
		{"admin manages any school", admin, ResourceSchool, 42, true},
		{"admin manages any culture program", admin, ResourceCulture, 42, true},
		{"school admin within grant", schoolAdmin, ResourceSchool, 3, true},
		{"school admin outside grant", schoolAdmin, ResourceSchool, 2, false},
		{"school admin cannot manage culture", schoolAdmin, ResourceCulture, 1, false},
		{"culture admin within granted category", cultureAdmin, ResourceCulture, 7, true},
		{"culture admin outside granted category", cultureAdmin, ResourceCulture, 8, false},
		{"regular user manages nothing", regular, ResourceSchool, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, gate.CanManage(tc.user, tc.resource, tc.id))
		})
	}
}

func putProgram(t *testing.T, gate *Gate, userID pgtype.UUID, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.With(gate.RequireProgramManager("programID")).
		Put("/culture/programs/{programID}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	req := httptest.NewRequest(http.MethodPut, path, nil)
	req = req.WithContext(common.WithUserID(req.Context(), common.UUIDString(userID)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireProgramManagerUsesCategoryGrant(t *testing.T) {
	granted := testUUID(0x21)
	other := testUUID(0x22)
	store := &stubStore{
		users: map[pgtype.UUID]db.User{
			granted: {ID: granted, Role: roleCultureAdmin, CulturePermissions: []int64{7}},
			other:   {ID: other, Role: roleCultureAdmin, CulturePermissions: []int64{8}},
		},
		programs: map[int64]db.CultureProgram{9: {ID: 9, CategoryID: 7}},
	}
	gate := &Gate{Q: store}

	rec := putProgram(t, gate, granted, "/culture/programs/9")
	require.Equal(t, http.StatusNoContent, rec.Code, "a category grant covers every program in it")

	rec = putProgram(t, gate, other, "/culture/programs/9")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireProgramManagerUnknownProgram(t *testing.T) {
	adminID := testUUID(0x21)
	store := &stubStore{
		users:    map[pgtype.UUID]db.User{adminID: {ID: adminID, Role: roleAdmin}},
		programs: map[int64]db.CultureProgram{},
	}
	gate := &Gate{Q: store}

	rec := putProgram(t, gate, adminID, "/culture/programs/99")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
