package appointment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/storage/pgerr"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/psqlbuilder"
	"github.com/m04kA/salon-booking/pkg/types"
)

var appointmentColumns = []string{
	"id",
	"booking_reference",
	"first_name",
	"last_name",
	"email",
	"phone",
	"message",
	"preferred_date",
	"preferred_time",
	"status",
	"appointment_slot_id",
	"total_duration",
	"total_price",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей клиентов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись без услуг.
// Услуги добавляются через AddService, итоги пересчитываются через UpdateTotals.
// При коллизии booking_reference возвращает ErrDuplicateReference.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"booking_reference",
			"first_name",
			"last_name",
			"email",
			"phone",
			"message",
			"preferred_date",
			"preferred_time",
			"status",
			"total_duration",
			"total_price",
		).
		Values(
			a.BookingReference,
			a.FirstName,
			a.LastName,
			a.Email,
			a.Phone,
			a.Message,
			a.PreferredDate.Format(domain.DateFormat),
			a.PreferredTime,
			a.Status,
			a.TotalDuration,
			a.TotalPrice,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&createdAt,
		&updatedAt,
	)
	if constraint, ok := pgerr.UniqueViolation(err); ok && constraint == constraintBookingReference {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, a.BookingReference)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return a, nil
}

// GetByReference получает запись по booking_reference вместе с услугами.
// Внутри транзакции строка записи блокируется (FOR UPDATE).
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Appointment, error) {
	return r.getOne(ctx, "GetByReference", squirrel.Eq{"booking_reference": reference})
}

// GetByID получает запись по ID вместе с услугами
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	var (
		a                    domain.Appointment
		message              sql.NullString
		preferredTime        types.TimeString
		slotID               sql.NullInt64
		createdAt, updatedAt sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.BookingReference,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.Phone,
		&message,
		&a.PreferredDate,
		&preferredTime,
		&a.Status,
		&slotID,
		&a.TotalDuration,
		&a.TotalPrice,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan appointment: %w", ErrScanRow, op, err)
	}

	a.PreferredDate = domain.DateOf(a.PreferredDate)
	if message.Valid {
		a.Message = &message.String
	}
	if !preferredTime.IsZero() {
		a.PreferredTime = &preferredTime
	}
	if slotID.Valid {
		id := slotID.Int64
		a.AppointmentSlotID = &id
	}
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	services, err := r.ListServices(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Services = services

	return &a, nil
}

// ListServices возвращает услуги записи в порядке добавления
func (r *Repository) ListServices(ctx context.Context, appointmentID int64) ([]domain.AppointmentService, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"aps.id",
		"aps.appointment_id",
		"aps.service_id",
		"s.name",
		"s.price",
		"s.duration_minutes",
	).
		From("appointment_services aps").
		Join("services s ON s.id = aps.service_id").
		Where(squirrel.Eq{"aps.appointment_id": appointmentID}).
		OrderBy("aps.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]domain.AppointmentService, 0)
	for rows.Next() {
		var s domain.AppointmentService
		if err := rows.Scan(
			&s.ID,
			&s.AppointmentID,
			&s.ServiceID,
			&s.ServiceName,
			&s.Price,
			&s.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("%w: ListServices - scan service: %w", ErrScanRow, err)
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServices - rows error: %w", ErrScanRow, err)
	}

	return services, nil
}

// AddService добавляет услугу в запись
func (r *Repository) AddService(ctx context.Context, appointmentID, serviceID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointment_services").
		Columns("appointment_id", "service_id").
		Values(appointmentID, serviceID).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: AddService - build insert query: %w", ErrBuildQuery, err)
	}

	_, err = executor.ExecContext(ctx, query, args...)
	if constraint, ok := pgerr.UniqueViolation(err); ok && constraint == constraintAppointmentService {
		return ErrServiceAlreadyAdded
	}
	if err != nil {
		return fmt.Errorf("%w: AddService - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// RemoveService удаляет услугу из записи
func (r *Repository) RemoveService(ctx context.Context, appointmentID, serviceID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointment_services").
		Where(squirrel.Eq{"appointment_id": appointmentID, "service_id": serviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RemoveService - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: RemoveService - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: RemoveService - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrServiceNotLinked
	}

	return nil
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	return r.update(ctx, "UpdateStatus", id, map[string]interface{}{"status": status})
}

// UpdateTotals сохраняет пересчитанные итоги записи
func (r *Repository) UpdateTotals(ctx context.Context, id int64, totals domain.Totals) error {
	return r.update(ctx, "UpdateTotals", id, map[string]interface{}{
		"total_duration": totals.DurationMinutes,
		"total_price":    totals.Price,
	})
}

// UpdateSlotLink обновляет ссылку на слот первой услуги (nil - убрать ссылку)
func (r *Repository) UpdateSlotLink(ctx context.Context, id int64, slotID *int64) error {
	return r.update(ctx, "UpdateSlotLink", id, map[string]interface{}{"appointment_slot_id": slotID})
}

// UpdatePreferredTime меняет согласованное время записи
func (r *Repository) UpdatePreferredTime(ctx context.Context, id int64, preferredTime types.TimeString) error {
	return r.update(ctx, "UpdatePreferredTime", id, map[string]interface{}{"preferred_time": preferredTime})
}

func (r *Repository) update(ctx context.Context, op string, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		SetMap(values).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %w", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}
