// Package migrations содержит goose-миграции схемы, встроенные в бинарник
package migrations

import "embed"

// FS используется с goose.SetBaseFS(migrations.FS) и goose.Up(db, ".")
//
//go:embed *.sql
var FS embed.FS
