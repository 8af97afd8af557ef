package database_test

import (
	"testing"

	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/database/dbtest"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMigrate_CreatesEveryTable(t *testing.T) {
	db := dbtest.Open(t)
	for _, table := range []string{"users", "profiles", "numerology_reports", "orders", "payment_history", "contact_messages", "reconciliation_tasks"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedAdmin(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, database.SeedAdmin(db, "admin@example.com", "s3cret!", ""))
	require.NoError(t, database.SeedAdmin(db, "admin@example.com", "other", ""))

	var admins []models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleAdmin, admins[0].Role)
	assert.Equal(t, "Administrator", admins[0].FullName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("s3cret!")))
}

func TestSeedAdmin_SkipsWithoutCredentials(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.SeedAdmin(db, "", "", ""))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}
