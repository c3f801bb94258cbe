package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/infrastructure/config"
)

func TestFileDatabase_Persists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file database test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "famtree.db")
	ctx := context.Background()

	repo, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")

	c, err := repo.CreateCase(ctx, entities.CreateCaseData{Title: "山田家"})
	require.NoError(t, err)
	taro, err := repo.CreatePerson(ctx, c.ID, entities.CreatePersonData{Name: "山田太郎"})
	require.NoError(t, err)
	ichiro, err := repo.CreatePerson(ctx, c.ID, entities.CreatePersonData{Name: "山田一郎"})
	require.NoError(t, err)
	_, err = repo.CreateRelationship(ctx, c.ID, entities.CreateRelationshipData{
		FromPersonID: ichiro.ID,
		ToPersonID:   taro.ID,
		Type:         entities.RelationChildOf,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Close())

	// Reopen
	repo2, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo2.Close()
	require.NoError(t, repo2.EnsureSchema(ctx))

	detail, err := repo2.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Persons, 2)
	assert.Len(t, detail.Relationships, 1)

	entries, err := repo2.History(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestFileDatabase_ConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file database test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "concurrent.db")
	ctx := context.Background()

	repo, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.EnsureSchema(ctx))

	c, err := repo.CreateCase(ctx, entities.CreateCaseData{Title: "大家族"})
	require.NoError(t, err)

	// Concurrent writes
	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreatePerson(ctx, c.ID, entities.CreatePersonData{Name: fmt.Sprintf("人物%d", i)})
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	// Concurrent reads
	readCh := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			detail, err := repo.GetCase(context.Background(), c.ID)
			if err != nil {
				readCh <- err
				return
			}
			if len(detail.Persons) != 20 {
				readCh <- fmt.Errorf("expected 20 persons, got %d", len(detail.Persons))
				return
			}
			readCh <- nil
		}()
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, <-readCh)
	}
}
