//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	imagespostgres "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/domain"
	"github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	"github.com/Apurer/go-gin-admin-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-admin-api/internal/platform/postgres"
)

func TestPostgresImageRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("images_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	repo := imagespostgres.NewRepository(db)

	img, err := domain.NewImage(0, "abc.png", 512, "cover.png", "")
	require.NoError(t, err)
	saved, err := repo.Save(ctx, img)
	require.NoError(t, err)
	assert.Positive(t, saved.Entity.ID)
	assert.False(t, saved.Metadata.CreatedAt.IsZero())

	dup, err := domain.NewImage(0, "abc.png", 1, "other.png", "")
	require.NoError(t, err)
	_, err = repo.Save(ctx, dup)
	assert.ErrorIs(t, err, ports.ErrPathTaken)

	renamed := *saved.Entity
	require.NoError(t, renamed.Rename("final.png"))
	updated, err := repo.Save(ctx, &renamed)
	require.NoError(t, err)
	assert.Equal(t, "final.png", updated.Entity.OriginalName)
	assert.Equal(t, "abc.png", updated.Entity.Path)

	list, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, saved.Entity.ID))
	assert.ErrorIs(t, repo.Delete(ctx, saved.Entity.ID), ports.ErrNotFound)
}
