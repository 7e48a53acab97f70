package repository

import (
	"context"
	"testing"
	"time"

	"admin_panel/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewAdminRepository(mock)

	mock.ExpectQuery(`INSERT INTO admins (.+) ON CONFLICT \(username\) DO UPDATE`).
		WithArgs("root", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now()))

	a := &model.Admin{Username: "root", PasswordHash: "hash"}
	require.NoError(t, repo.Upsert(context.Background(), a))
	assert.Equal(t, int64(5), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_FindByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewAdminRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM admins WHERE username = \$1`).
		WithArgs("root").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(int64(5), "root", "hash", time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM admins WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	a, err := repo.FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "hash", a.PasswordHash)

	_, err = repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
