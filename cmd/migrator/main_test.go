package main

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/config"
)

func TestBuildMigrateDSN(t *testing.T) {
	dsn := buildMigrateDSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		Name:     "grocery",
	}, "migrations")

	assert.Equal(t, "postgres://postgres:pw@localhost:5432/grocery?sslmode=disable&x-migrations-table=migrations", dsn)
}

func TestPrintTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("variants"))

	require.NoError(t, printTables(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
