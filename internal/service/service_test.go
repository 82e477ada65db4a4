package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Friendship{},
		&model.Notification{},
		&model.Message{},
		&model.Chat{},
		&model.Post{},
		&model.PostLike{},
		&model.PostComment{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, stageName, accountType string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)

	profile := &model.Profile{
		UserID:      user.ID,
		StageName:   stageName,
		AccountType: accountType,
	}
	require.NoError(t, db.Create(profile).Error)

	user.Profile = profile
	return user
}
