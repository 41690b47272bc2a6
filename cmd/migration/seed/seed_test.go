package seed

import (
	"testing"

	"portal/config"
	"portal/internal/database"
	"portal/internal/logger"
	. "portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	cfg := config.Config{DatabaseDbPath: ":memory:", Environment: "development"}
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	log := logger.New("seed_test")

	created, err := Seed(db.SQL, cfg, log, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	created, err = Seed(db.SQL, cfg, log, 5, false)
	require.NoError(t, err)
	assert.Zero(t, created, "existing customers block a second seed")

	created, err = Seed(db.SQL, cfg, log, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var customers []Customer
	require.NoError(t, db.SQL.Find(&customers).Error)
	require.Len(t, customers, 7)
	for _, c := range customers {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.FormData.GUID)
	}
}

func TestSeed_Production(t *testing.T) {
	cfg := config.Config{DatabaseDbPath: ":memory:", Environment: "production"}
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	created, err := Seed(db.SQL, cfg, logger.New("seed_test"), 3, false)
	require.NoError(t, err)
	assert.Zero(t, created)
}
