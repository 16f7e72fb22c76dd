package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/venuehub/event-ticketing/internal/config"
	"github.com/venuehub/event-ticketing/internal/repository"
)

const userCols = "id,email,password_hash,role,is_active,created_at,updated_at"

func newAdminHandler(t *testing.T) (*AdminUserHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{BcryptCost: bcrypt.MinCost}
	return NewAdminUserHandler(cfg, repository.NewUserRepo(db)), mock
}

// adminCtx simulates a request that already passed the JWT and
// capability middleware as an ADMIN.
func adminCtx(t *testing.T, method, target, body string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1))
	c.Set("role", "ADMIN")
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func TestAdminListUsers(t *testing.T) {
	h, mock := newAdminHandler(t)
	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM users ORDER BY id").
		WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ",")).
			AddRow(1, "admin@venue.io", "x", "ADMIN", true, now, now).
			AddRow(2, "cust@venue.io", "x", "CUSTOMER", false, now, now))

	c, rec := adminCtx(t, http.MethodGet, "/v1/admin/users", "", nil)
	require.NoError(t, h.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cust@venue.io")
	assert.NotContains(t, body, "password_hash")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminGetUserNotFound(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ",")))

	c, rec := adminCtx(t, http.MethodGet, "/v1/admin/users/99", "", map[string]string{"id": "99"})
	require.NoError(t, h.GetUser(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateUserDuplicateEmail(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"})

	c, rec := adminCtx(t, http.MethodPost, "/v1/admin/users",
		`{"email":"dup@venue.io","password":"pw","role":"ORGANIZER"}`, nil)
	require.NoError(t, h.CreateUser(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateUserRejectsUnknownRole(t *testing.T) {
	h, mock := newAdminHandler(t)

	c, rec := adminCtx(t, http.MethodPost, "/v1/admin/users",
		`{"email":"new@venue.io","password":"pw","role":"WIZARD"}`, nil)
	require.NoError(t, h.CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateUserPartial(t *testing.T) {
	h, mock := newAdminHandler(t)
	now := time.Now()
	// current row, then the guarded UPDATE, then the reread.
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ",")).
			AddRow(5, "cust@venue.io", "x", "CUSTOMER", true, now, now))
	mock.ExpectExec("UPDATE users SET role=").
		WithArgs("CUSTOMER", false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ",")).
			AddRow(5, "cust@venue.io", "x", "CUSTOMER", false, now, now))

	c, rec := adminCtx(t, http.MethodPatch, "/v1/admin/users/5",
		`{"is_active":false}`, map[string]string{"id": "5"})
	require.NoError(t, h.UpdateUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteUserOwnsRows(t *testing.T) {
	h, mock := newAdminHandler(t)
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "a foreign key constraint fails"})

	c, rec := adminCtx(t, http.MethodDelete, "/v1/admin/users/5", "", map[string]string{"id": "5"})
	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteUserSelf(t *testing.T) {
	h, mock := newAdminHandler(t)

	c, rec := adminCtx(t, http.MethodDelete, "/v1/admin/users/1", "", map[string]string{"id": "1"})
	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
