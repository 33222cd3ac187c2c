package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/salon-booking/pkg/dbmetrics"
)

var (
	ErrBeginTx  = errors.New("txmanager: begin transaction")
	ErrCommitTx = errors.New("txmanager: commit transaction")
	// ErrSerialization конкурентная транзакция изменила те же строки (SQLSTATE 40001)
	ErrSerialization = errors.New("txmanager: serialization failure")
)

const pqSerializationFailure = "40001"

// TransactionManager выполняет функции в транзакции, передавая ее через контекст
type TransactionManager struct {
	db dbmetrics.TxBeginner
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db dbmetrics.TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию (READ COMMITTED)
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelDefault}, fn)
}

// DoSerializable выполняет fn в транзакции с уровнем изоляции SERIALIZABLE
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelDefault, ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	// Вложенный вызов переиспользует уже открытую транзакцию
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}

	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("%w: %w", ErrCommitTx, err))
	}

	return nil
}

// classify добавляет ErrSerialization к ошибкам сериализации postgres
func classify(err error) error {
	if IsSerializationFailure(err) && !errors.Is(err, ErrSerialization) {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return err
}

// IsSerializationFailure проверяет, что ошибка вызвана конфликтом SERIALIZABLE-транзакций
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqSerializationFailure
	}
	return false
}
