package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserBeforeCreateHashesPassword(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	u := &User{
		FirstName: "Alice",
		LastName:  "Tester",
		Email:     "alice@example.com",
		Password:  "password123",
	}
	require.NoError(t, db.Create(u).Error)

	assert.NotEmpty(t, u.ID)
	assert.Empty(t, u.Password, "plain text password must be cleared")
	assert.NotEmpty(t, u.HashedPassword)
	assert.True(t, u.CheckPassword("password123"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUserDisplayNameAndPrivilege(t *testing.T) {
	u := &User{FirstName: "Alice", LastName: "Tester"}
	assert.Equal(t, "Alice Tester", u.GetDisplayName())

	u.LastName = ""
	assert.Equal(t, "Alice", u.GetDisplayName())

	assert.False(t, u.IsPrivileged())
	u.Role = RoleHost
	assert.True(t, u.IsPrivileged())
	u.Role = RoleAdmin
	assert.True(t, u.IsPrivileged())
}

func TestJoinRequestResolved(t *testing.T) {
	r := &JoinRequest{Status: JoinRequestStatusPending}
	assert.False(t, r.Resolved())

	r.Status = JoinRequestStatusAccepted
	assert.True(t, r.Resolved())

	r.Status = JoinRequestStatusDeclined
	assert.True(t, r.Resolved())
}
