package slot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/psqlbuilder"
	"github.com/m04kA/salon-booking/pkg/types"
)

// insertBatchSize ограничивает число строк в одном INSERT (7 параметров на строку)
const insertBatchSize = 500

var slotColumns = []string{
	"sl.id",
	"sl.service_id",
	"sl.date",
	"sl.start_time",
	"sl.end_time",
	"sl.is_available",
	"sl.is_booked",
	"sl.appointment_id",
	"COALESCE(s.name, '')",
	"sl.created_at",
	"sl.updated_at",
}

// openPredicate слот свободен: включен, не занят и никем не удерживается
var openPredicate = squirrel.And{
	squirrel.Eq{"sl.is_available": true},
	squirrel.Eq{"sl.is_booked": false},
	squirrel.Eq{"sl.appointment_id": nil},
}

// Repository репозиторий слотов записи
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateBatch создает слоты, пропуская уже существующие по ключу (date, start_time, service_id).
// Существующие строки (и их is_booked) не изменяются. Возвращает количество созданных слотов.
func (r *Repository) CreateBatch(ctx context.Context, slots []domain.AppointmentSlot) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	created := 0
	for start := 0; start < len(slots); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(slots) {
			end = len(slots)
		}

		insertBuilder := psqlbuilder.Insert("appointment_slots").
			Columns(
				"service_id",
				"date",
				"start_time",
				"end_time",
				"is_available",
				"is_booked",
			)
		for _, s := range slots[start:end] {
			insertBuilder = insertBuilder.Values(
				s.ServiceID,
				s.Date.Format(domain.DateFormat),
				s.StartTime,
				s.EndTime,
				s.IsAvailable,
				false,
			)
		}

		query, args, err := insertBuilder.
			Suffix("ON CONFLICT (date, start_time, service_id) DO NOTHING").
			ToSql()
		if err != nil {
			return created, fmt.Errorf("%w: CreateBatch - build insert query: %w", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(ctx, query, args...)
		if err != nil {
			return created, fmt.Errorf("%w: CreateBatch - execute insert: %w", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return created, fmt.Errorf("%w: CreateBatch - get rows affected: %w", ErrExecQuery, err)
		}
		created += int(rowsAffected)
	}

	return created, nil
}

// DeleteAll удаляет все слоты (режим полной перегенерации, теряет состояние бронирований)
func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointment_slots").ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAll - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAll - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAll - get rows affected: %w", ErrExecQuery, err)
	}

	return int(rowsAffected), nil
}

// List возвращает слоты по фильтру, отсортированные по (date, start_time, service_id)
func (r *Repository) List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AppointmentSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := applyFilter(psqlbuilder.Select(slotColumns...).
		From("appointment_slots sl").
		LeftJoin("services s ON s.id = sl.service_id"), filter).
		OrderBy("sl.date ASC", "sl.start_time ASC", "sl.service_id ASC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// ListDates возвращает уникальные даты слотов по фильтру в порядке возрастания
func (r *Repository) ListDates(ctx context.Context, filter domain.SlotFilter) ([]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := applyFilter(psqlbuilder.Select("DISTINCT sl.date").
		From("appointment_slots sl"), filter).
		OrderBy("sl.date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDates - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDates - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("%w: ListDates - scan date: %w", ErrScanRow, err)
		}
		dates = append(dates, domain.DateOf(date))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListDates - rows error: %w", ErrScanRow, err)
	}

	return dates, nil
}

// GetByKey получает слот по (service_id, date, start_time).
// Внутри транзакции строка блокируется (FOR UPDATE) до конца транзакции.
func (r *Repository) GetByKey(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (*domain.AppointmentSlot, error) {
	return r.getOne(ctx, "GetByKey", squirrel.Eq{
		"sl.service_id": serviceID,
		"sl.date":       date.Format(domain.DateFormat),
		"sl.start_time": startTime,
	})
}

// GetByID получает слот по ID (с блокировкой внутри транзакции)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AppointmentSlot, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"sl.id": id})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.AppointmentSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("appointment_slots sl").
		LeftJoin("services s ON s.id = sl.service_id").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF sl")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan slot: %w", ErrScanRow, op, err)
	}

	return slot, nil
}

// ListByAppointment возвращает слоты, удерживаемые или занятые записью
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID int64) ([]*domain.AppointmentSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("appointment_slots sl").
		LeftJoin("services s ON s.id = sl.service_id").
		Where(squirrel.Eq{"sl.appointment_id": appointmentID}).
		OrderBy("sl.date ASC", "sl.start_time ASC", "sl.service_id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF sl")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByAppointment - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByAppointment - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// Hold закрепляет свободный слот за записью (is_booked не меняется).
// Условие свободности проверяется в самом UPDATE, поэтому два конкурентных Hold не пройдут оба.
func (r *Repository) Hold(ctx context.Context, slotID, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointment_slots").
		Set("appointment_id", appointmentID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID}).
		Where(squirrel.Eq{"is_available": true, "is_booked": false, "appointment_id": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Hold - build update query: %w", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, executor, "Hold", query, args)
}

// Claim помечает слот занятым (is_booked = true) для записи.
// Слот должен быть включен, не занят и либо свободен, либо удерживаться этой же записью.
func (r *Repository) Claim(ctx context.Context, slotID, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointment_slots").
		Set("is_booked", true).
		Set("appointment_id", appointmentID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID, "is_available": true, "is_booked": false}).
		Where(squirrel.Or{
			squirrel.Eq{"appointment_id": nil},
			squirrel.Eq{"appointment_id": appointmentID},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Claim - build update query: %w", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, executor, "Claim", query, args)
}

// Release освобождает один слот записи (is_booked = false, appointment_id = NULL)
func (r *Repository) Release(ctx context.Context, slotID, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointment_slots").
		Set("is_booked", false).
		Set("appointment_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID, "appointment_id": appointmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Release - build update query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Release - execute update: %w", ErrExecQuery, err)
	}

	return nil
}

// ReleaseByAppointment освобождает все слоты записи, сами слоты не удаляются.
// Возвращает количество освобожденных слотов.
func (r *Repository) ReleaseByAppointment(ctx context.Context, appointmentID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointment_slots").
		Set("is_booked", false).
		Set("appointment_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByAppointment - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByAppointment - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByAppointment - get rows affected: %w", ErrExecQuery, err)
	}

	return int(rowsAffected), nil
}

// SetAvailability включает или выключает слот администратором (is_booked не меняется)
func (r *Repository) SetAvailability(ctx context.Context, slotID int64, available bool) (*domain.AppointmentSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointment_slots").
		Set("is_available", available).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SetAvailability - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: SetAvailability - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: SetAvailability - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return nil, ErrSlotNotFound
	}

	return r.GetByID(ctx, slotID)
}

func (r *Repository) execGuarded(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotAvailable
	}

	return nil
}

// applyFilter добавляет условия фильтра к запросу по таблице appointment_slots (алиас sl)
func applyFilter(b squirrel.SelectBuilder, filter domain.SlotFilter) squirrel.SelectBuilder {
	if len(filter.ServiceIDs) > 0 {
		b = b.Where(squirrel.Eq{"sl.service_id": filter.ServiceIDs})
	}
	if filter.DateFrom != nil {
		b = b.Where(squirrel.GtOrEq{"sl.date": filter.DateFrom.Format(domain.DateFormat)})
	}
	if filter.DateTo != nil {
		b = b.Where(squirrel.LtOrEq{"sl.date": filter.DateTo.Format(domain.DateFormat)})
	}
	if filter.OnlyOpen {
		b = b.Where(openPredicate)
	}
	return b
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.AppointmentSlot, error) {
	var (
		slot                 domain.AppointmentSlot
		appointmentID        sql.NullInt64
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&slot.ID,
		&slot.ServiceID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsAvailable,
		&slot.IsBooked,
		&appointmentID,
		&slot.ServiceName,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Date = domain.DateOf(slot.Date)
	if appointmentID.Valid {
		id := appointmentID.Int64
		slot.AppointmentID = &id
	}
	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func scanSlots(rows *sql.Rows) ([]*domain.AppointmentSlot, error) {
	slots := make([]*domain.AppointmentSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan slot: %w", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %w", ErrScanRow, err)
	}

	return slots, nil
}
