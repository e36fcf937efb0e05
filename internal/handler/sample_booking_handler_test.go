package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/service"
	"go-roastery-api/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newBookingApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	svc := service.NewSampleBookingService(repository.NewSampleBookingRepo(db), repository.NewBusinessRepo(db),
		db, cache.NewLocalLocker(), nil, nil)
	h := NewSampleBookingHandler(svc)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/sample-bookings", h.CreateSampleBooking)
	app.Get("/admin/sample-bookings", h.GetSampleBookings)
	app.Post("/admin/sample-bookings/:id/convert", h.Convert)
	return app
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSampleBookingHandler_Flow(t *testing.T) {
	app := newBookingApp(t)
	date := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")

	status, env := call(t, app, postJSON("/sample-bookings",
		`{"contact_name":"Ines","company_name":"Corner Cafe","email":"ines@corner.cafe","requested_date":"`+date+`"}`))
	require.Equal(t, fiber.StatusCreated, status)

	var booking struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, "pending", booking.Status)

	status, env = call(t, app, postJSON("/sample-bookings",
		`{"contact_name":"Ines","email":"ines@corner.cafe","requested_date":"1999-12-31"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = call(t, app, postJSON("/sample-bookings", `{not json`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/admin/sample-bookings?status=bogus", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, postJSON("/admin/sample-bookings/"+booking.ID+"/convert", ""))
	assert.Equal(t, fiber.StatusCreated, status)

	status, env = call(t, app, postJSON("/admin/sample-bookings/"+booking.ID+"/convert", ""))
	assert.Equal(t, fiber.StatusOK, status, "second conversion returns the existing business")
	assert.True(t, env.Success)

	status, _ = call(t, app, postJSON("/admin/sample-bookings/not-a-uuid/convert", ""))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, postJSON("/admin/sample-bookings/"+uuid.NewString()+"/convert", ""))
	assert.Equal(t, fiber.StatusNotFound, status)
}
