package repository

import "context"

// Transactor runs fn inside a single store transaction. Repository calls made
// with the ctx passed to fn join that transaction. The transaction commits if
// fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
