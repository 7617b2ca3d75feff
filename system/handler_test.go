package system

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/cache"
	"taskboard/common"
	"taskboard/entity"
	"taskboard/storage/sqlite"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var taskCols = []string{"id", "title", "description", "board_id", "column_name", "priority", "assignee_id", "creator_id", "status", "due_date", "reminder_date", "position"}

func newMockHandler(t *testing.T, c *cache.Cache) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sessions := common.NewSessionManager("secret", time.Hour, false, c)
	return NewHandler(sqlite.New(db), c, sessions, zap.NewNop(), 5*time.Minute), mock
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(common.WithUserID(req.Context(), userID))
}

func expectMember(mock sqlmock.Sqlmock, boardID, userID string, member bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(boardID, userID, boardID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"member"}).AddRow(member))
}

func TestHealth(t *testing.T) {
	h, _ := newMockHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	db.Close()
	h := NewHandler(sqlite.New(db), nil, nil, zap.NewNop(), time.Minute)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListBoards_Unauthorized(t *testing.T) {
	h, _ := newMockHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ListBoards(rec, httptest.NewRequest("GET", "/api/boards", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListBoards_StoreError(t *testing.T) {
	h, mock := newMockHandler(t, nil)
	mock.ExpectQuery("FROM boards").WillReturnError(errors.New("disk I/O error"))

	rec := httptest.NewRecorder()
	h.ListBoards(rec, authed(httptest.NewRequest("GET", "/api/boards", nil), "u1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to fetch boards"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoard_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "invalid", "Invalid request body"},
		{"missing name", `{"type":"personal"}`, "Name and type are required"},
		{"missing type", `{"name":"Home"}`, "Name and type are required"},
		{"bad type", `{"name":"Home","type":"secret"}`, "Invalid board type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, _ := newMockHandler(t, nil)
			rec := httptest.NewRecorder()
			h.CreateBoard(rec, authed(httptest.NewRequest("POST", "/api/boards", strings.NewReader(c.body)), "u1"))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, c.want, resp.Message)
		})
	}
}

func TestListBoardTasks_CacheHit(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	defer rdb.Close()
	h, mock := newMockHandler(t, cache.New(rdb))

	expectMember(mock, "b1", "u1", true)
	cached := `[{"id":"t1","title":"Cached","boardId":"b1","column":"todo","priority":"low","creatorId":"u1","status":"pending","position":0}]`
	rmock.ExpectGet("board:b1:tasks").SetVal(cached)

	req := mux.SetURLVars(authed(httptest.NewRequest("GET", "/api/boards/b1/tasks", nil), "u1"), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.ListBoardTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []entity.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Cached", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestListBoardTasks_CacheMissStoresResult(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	defer rdb.Close()
	h, mock := newMockHandler(t, cache.New(rdb))

	expectMember(mock, "b1", "u1", true)
	rmock.ExpectGet("board:b1:tasks").RedisNil()
	mock.ExpectQuery("FROM tasks WHERE board_id").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Write report", nil, "b1", "todo", "medium", nil, "u1", "pending", nil, nil, int64(0)))

	expected, err := json.Marshal([]entity.Task{{
		ID: "t1", Title: "Write report", BoardID: "b1", Column: entity.ColumnTodo,
		Priority: entity.PriorityMedium, CreatorID: "u1", Status: entity.StatusPending,
	}})
	require.NoError(t, err)
	rmock.ExpectSet("board:b1:tasks", string(expected), 5*time.Minute).SetVal("OK")

	req := mux.SetURLVars(authed(httptest.NewRequest("GET", "/api/boards/b1/tasks", nil), "u1"), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.ListBoardTasks(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestListBoardTasks_NotMember(t *testing.T) {
	h, mock := newMockHandler(t, nil)
	expectMember(mock, "b1", "u2", false)

	req := mux.SetURLVars(authed(httptest.NewRequest("GET", "/api/boards/b1/tasks", nil), "u2"), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.ListBoardTasks(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteTask_InvalidatesBoardCache(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	defer rdb.Close()
	h, mock := newMockHandler(t, cache.New(rdb))

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Write report", nil, "b1", "todo", "medium", nil, "u1", "pending", nil, nil, int64(0)))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifications").WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM reminders").WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM tasks").WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	rmock.ExpectDel("board:b1:tasks").SetVal(1)

	req := mux.SetURLVars(authed(httptest.NewRequest("DELETE", "/api/tasks/t1", nil), "u1"), map[string]string{"id": "t1"})
	rec := httptest.NewRecorder()
	h.DeleteTask(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestDeleteTask_RollbackIs500(t *testing.T) {
	h, mock := newMockHandler(t, nil)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "Write report", nil, "b1", "todo", "medium", nil, "u1", "pending", nil, nil, int64(0)))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifications").WithArgs("t1").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	req := mux.SetURLVars(authed(httptest.NewRequest("DELETE", "/api/tasks/t1", nil), "u1"), map[string]string{"id": "t1"})
	rec := httptest.NewRecorder()
	h.DeleteTask(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to delete task"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"null title", `{"title":null}`, "Title cannot be empty"},
		{"empty title", `{"title":""}`, "Title cannot be empty"},
		{"bad column", `{"column":"archived"}`, "Invalid column"},
		{"null priority", `{"priority":null}`, "Invalid priority"},
		{"bad status", `{"status":"maybe"}`, "Invalid status"},
		{"null position", `{"position":null}`, "Invalid position"},
		{"negative position", `{"position":-5}`, "Invalid position"},
		{"wrong type", `{"position":"first"}`, "Invalid request body"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, mock := newMockHandler(t, nil)
			req := mux.SetURLVars(authed(httptest.NewRequest("PATCH", "/api/tasks/t1", bytes.NewBufferString(c.body)), "u1"), map[string]string{"id": "t1"})
			rec := httptest.NewRecorder()
			h.UpdateTask(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"`+c.want+`"}`, rec.Body.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateReminder_Validation(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"taskId":"t1"}`, "taskId and reminderTime are required"},
		{`{"reminderTime":"2025-06-13T09:00:00Z"}`, "taskId and reminderTime are required"},
		{`{"taskId":"t1","reminderTime":"tomorrow"}`, "Invalid reminderTime"},
	}
	for _, c := range cases {
		h, _ := newMockHandler(t, nil)
		rec := httptest.NewRecorder()
		h.CreateReminder(rec, authed(httptest.NewRequest("POST", "/api/reminders", strings.NewReader(c.body)), "u1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code, c.body)
		assert.JSONEq(t, `{"message":"`+c.want+`"}`, rec.Body.String())
	}
}

func TestNormalizeAssignee(t *testing.T) {
	none, empty, bob := "none", "", "bob"
	assert.Nil(t, normalizeAssignee(nil))
	assert.Nil(t, normalizeAssignee(&none))
	assert.Nil(t, normalizeAssignee(&empty))
	assert.Equal(t, &bob, normalizeAssignee(&bob))
}
