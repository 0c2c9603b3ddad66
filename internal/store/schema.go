package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the idempotent DDL executed on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS produtos (
		id INTEGER PRIMARY KEY,
		nome TEXT NOT NULL,
		descricao TEXT,
		quantidade INTEGER,
		preco FLOAT
	)`,
	`CREATE TABLE IF NOT EXISTS vendas (
		id INTEGER PRIMARY KEY,
		produto_id INTEGER NOT NULL,
		produto_nome TEXT NOT NULL,
		quantidade INTEGER,
		preco_unitario FLOAT,
		total FLOAT,
		data TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
		id INTEGER PRIMARY KEY,
		nome TEXT NOT NULL,
		email TEXT NOT NULL,
		cpf TEXT NOT NULL,
		senha_hash TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_email ON usuarios (email)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_cpf ON usuarios (cpf)`,
}

// CreateSchema creates the tables and indexes if they do not exist yet.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
