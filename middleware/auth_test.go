package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"pickabook/constants"
	"pickabook/database"
	userModel "pickabook/models/user"
	"pickabook/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, userType int) *userModel.User {
	t.Helper()
	u := &userModel.User{
		Uuid:     uuid.NewString(),
		Username: "tester",
		Email:    fmt.Sprintf("tester-%d@example.com", userType),
		UserType: userType,
		Credits:  10,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newAuthApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()
	database.DB = db

	app := fiber.New()
	app.Get("/protected", RequireAuth(), func(c *fiber.Ctx) error {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"email": u.Email})
	})
	app.Get("/admin", RequireAuth(), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireAuthValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	u := seedUser(t, db, constants.UserTypeOrdinary)
	app := newAuthApp(t, db)

	token, err := utils.GenerateToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAuthMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	app := newAuthApp(t, db)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	app := newAuthApp(t, db)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthBadSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "other-secret")
	db := newTestDB(t)
	u := seedUser(t, db, constants.UserTypeOrdinary)
	token, err := utils.GenerateToken(u)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "test-secret")
	app := newAuthApp(t, db)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthUnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	app := newAuthApp(t, db)

	ghost := &userModel.User{ID: 999, Uuid: uuid.NewString()}
	token, err := utils.GenerateToken(ghost)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdminForbidsOrdinaryUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	u := seedUser(t, db, constants.UserTypeOrdinary)
	app := newAuthApp(t, db)

	token, err := utils.GenerateToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	admin := seedUser(t, db, constants.UserTypeAdmin)
	app := newAuthApp(t, db)

	token, err := utils.GenerateToken(admin)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
