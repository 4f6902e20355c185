package persistence

import (
	"context"
	"errors"
	"testing"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope(t *testing.T) {
	db := newTestDatabase(t)
	scope := NewGormTransactionScope(db.DB)
	clients := NewGormClientRepository(db.DB)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		c := newPreparedClient(t, "44444444", "Tal", "Ron")
		err := scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
			return repos.Clients().Save(ctx, c)
		})
		require.NoError(t, err)

		_, err = clients.FindByIDNumber(ctx, "44444444")
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		c := newPreparedClient(t, "55555555", "Gil", "Ad")
		err := scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
			if err := repos.Clients().Save(ctx, c); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = clients.FindByIDNumber(ctx, "55555555")
		assert.ErrorIs(t, err, shared.ErrClientNotFound)
	})
}
