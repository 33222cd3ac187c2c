package slot_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/txmanager"
)

type rowsAffected int64

func (r rowsAffected) LastInsertId() (int64, error) { return 0, nil }
func (r rowsAffected) RowsAffected() (int64, error) { return int64(r), nil }

// stubTx отвечает на UPDATE заранее заданным результатом
type stubTx struct {
	affected  int64
	execErr   error
	commitErr error
	queries   []string
}

func (s *stubTx) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	s.queries = append(s.queries, query)
	if s.execErr != nil {
		return nil, s.execErr
	}
	return rowsAffected(s.affected), nil
}

func (s *stubTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, s.execErr
}

func (s *stubTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (s *stubTx) Commit() error                                                    { return s.commitErr }
func (s *stubTx) Rollback() error                                                  { return nil }

type stubDB struct{ tx *stubTx }

func (d *stubDB) BeginTx(context.Context, *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	return d.tx, nil
}

func holdInTx(tx *stubTx) error {
	repo := slot.NewRepository(tx)
	return txmanager.NewTransactionManager(&stubDB{tx: tx}).DoSerializable(context.Background(), func(ctx context.Context) error {
		return repo.Hold(ctx, 7, 42)
	})
}

func TestHold(t *testing.T) {
	tx := &stubTx{affected: 1}
	require.NoError(t, holdInTx(tx))
	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], "UPDATE appointment_slots")
	assert.Contains(t, tx.queries[0], "appointment_id IS NULL")
}

func TestHold_TakenSlot(t *testing.T) {
	err := holdInTx(&stubTx{affected: 0})
	require.ErrorIs(t, err, slot.ErrSlotNotAvailable)
}

func TestHold_SerializationFailureKeepsDriverError(t *testing.T) {
	err := holdInTx(&stubTx{execErr: &pq.Error{Code: "40001"}})

	require.ErrorIs(t, err, txmanager.ErrSerialization)
	assert.ErrorIs(t, err, slot.ErrExecQuery)

	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("40001"), pqErr.Code)
}

func TestHold_SerializationFailureOnCommit(t *testing.T) {
	err := holdInTx(&stubTx{affected: 1, commitErr: &pq.Error{Code: "40001"}})

	require.ErrorIs(t, err, txmanager.ErrSerialization)
	assert.ErrorIs(t, err, txmanager.ErrCommitTx)
}
