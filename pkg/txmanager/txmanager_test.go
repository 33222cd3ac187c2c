package txmanager_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/txmanager"
)

var errStorage = errors.New("repository: failed to execute query")

func serializationFailure() error {
	return &pq.Error{Code: "40001", Message: "could not serialize access due to read/write dependencies among transactions"}
}

type fakeTx struct {
	commitErr  error
	execErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, f.execErr
}

func (f *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, f.execErr
}

func (f *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (f *fakeTx) Commit() error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback() error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
	opts     *sql.TxOptions
	begins   int
}

func (f *fakeBeginner) BeginTx(_ context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	f.begins++
	f.opts = opts
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func TestDoSerializable_Commits(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	m := txmanager.NewTransactionManager(db)

	var inTx bool
	err := m.DoSerializable(context.Background(), func(ctx context.Context) error {
		inTx = dbmetrics.IsInTransaction(ctx)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, inTx)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	assert.Equal(t, sql.LevelSerializable, db.opts.Isolation)
}

func TestDoSerializable_QueryFailureIsSerialization(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{execErr: serializationFailure()}}
	m := txmanager.NewTransactionManager(db)

	err := m.DoSerializable(context.Background(), func(ctx context.Context) error {
		_, err := dbmetrics.GetExecutor(ctx, nil).ExecContext(ctx, "UPDATE appointment_slots SET is_booked = true")
		if err != nil {
			return fmt.Errorf("%w: Hold - execute update: %w", errStorage, err)
		}
		return nil
	})

	require.ErrorIs(t, err, txmanager.ErrSerialization)
	assert.ErrorIs(t, err, errStorage)
	assert.True(t, txmanager.IsSerializationFailure(err))
	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)
}

func TestDoSerializable_CommitFailureIsSerialization(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{commitErr: serializationFailure()}}
	m := txmanager.NewTransactionManager(db)

	err := m.DoSerializable(context.Background(), func(context.Context) error { return nil })

	require.ErrorIs(t, err, txmanager.ErrSerialization)
	assert.ErrorIs(t, err, txmanager.ErrCommitTx)
}

func TestDo_OtherErrorsPassThrough(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	m := txmanager.NewTransactionManager(db)

	fnErr := fmt.Errorf("%w: unique violation: %w", errStorage, &pq.Error{Code: "23505"})
	err := m.Do(context.Background(), func(context.Context) error { return fnErr })

	require.ErrorIs(t, err, errStorage)
	assert.NotErrorIs(t, err, txmanager.ErrSerialization)
	assert.True(t, db.tx.rolledBack)
	assert.Equal(t, sql.LevelDefault, db.opts.Isolation)
}

func TestDo_CommitError(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{commitErr: sql.ErrConnDone}}
	m := txmanager.NewTransactionManager(db)

	err := m.Do(context.Background(), func(context.Context) error { return nil })

	require.ErrorIs(t, err, txmanager.ErrCommitTx)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, txmanager.ErrSerialization)
}

func TestDo_BeginError(t *testing.T) {
	db := &fakeBeginner{beginErr: sql.ErrConnDone}
	m := txmanager.NewTransactionManager(db)

	called := false
	err := m.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, txmanager.ErrBeginTx)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}

func TestDo_NestedReusesTransaction(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	m := txmanager.NewTransactionManager(db)

	err := m.Do(context.Background(), func(ctx context.Context) error {
		return m.DoSerializable(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.Equal(t, 1, db.begins)
}

func TestDoReadOnly(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	m := txmanager.NewTransactionManager(db)

	require.NoError(t, m.DoReadOnly(context.Background(), func(context.Context) error { return nil }))
	assert.True(t, db.opts.ReadOnly)
}

func TestIsSerializationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"other pq code", &pq.Error{Code: "23505"}, false},
		{"direct", serializationFailure(), true},
		{"wrapped", fmt.Errorf("outer: %w", fmt.Errorf("%w: %w", errStorage, serializationFailure())), true},
		{"formatted with %v", fmt.Errorf("%w: %v", errStorage, serializationFailure()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, txmanager.IsSerializationFailure(tt.err))
		})
	}
}
