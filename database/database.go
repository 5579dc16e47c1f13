package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"quadro-kanban/config"
	"quadro-kanban/utilities"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	firebase_uid TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Connect abre o banco do diretório de usuários conforme USERS_DB_DRIVER
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.UsersDBDriver {
	case config.DriverSQLite:
		return Open(config.DriverSQLite, cfg.DBPath)
	default:
		return Open(config.DriverPostgres, cfg.PostgresDSN())
	}
}

// Open abre a conexão, testa com Ping e garante que a tabela users existe
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		utilities.LogError(err, "Erro ao abrir conexão com o banco de dados")
		return nil, err
	}
	if driver == config.DriverSQLite {
		// sqlite aceita um escritor por vez
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		utilities.LogError(err, "Erro ao conectar ao banco de dados")
		return nil, err
	}

	if _, err := db.Exec(usersSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao criar tabela users: %w", err)
	}

	utilities.LogInfo("Conectado ao banco de usuários (%s) com sucesso!", driver)
	return db, nil
}
