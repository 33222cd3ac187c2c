package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/psqlbuilder"
)

var serviceColumns = []string{
	"s.id",
	"s.category_id",
	"COALESCE(c.name, '')",
	"s.name",
	"s.price",
	"s.duration_minutes",
	"s.is_active",
}

// Repository репозиторий каталога услуг и часов работы (только чтение, кроме начального заполнения)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListActiveServices возвращает активные услуги, отсортированные по категории и названию
func (r *Repository) ListActiveServices(ctx context.Context) ([]*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(serviceColumns...).
		From("services s").
		LeftJoin("service_categories c ON c.id = s.category_id").
		Where(squirrel.Eq{"s.is_active": true}).
		OrderBy("c.name ASC NULLS LAST", "s.name ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveServices - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveServices - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// GetServicesByIDs возвращает услуги по списку ID (в том числе неактивные).
// Отсутствующие ID просто не попадают в результат.
func (r *Repository) GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	if len(ids) == 0 {
		return []*domain.Service{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(serviceColumns...).
		From("services s").
		LeftJoin("service_categories c ON c.id = s.category_id").
		Where(squirrel.Eq{"s.id": ids}).
		OrderBy("s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetServicesByIDs - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetServicesByIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// GetBusinessHours возвращает часы работы по дням недели (только активные правила)
func (r *Repository) GetBusinessHours(ctx context.Context) (domain.BusinessHours, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"day_of_week",
		"is_open",
		"open_time",
		"close_time",
		"is_active",
	).
		From("business_hours").
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBusinessHours - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBusinessHours - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	hours := make(domain.BusinessHours, 7)
	for rows.Next() {
		var (
			rule domain.BusinessHoursRule
			day  string
		)
		if err := rows.Scan(
			&rule.ID,
			&day,
			&rule.IsOpen,
			&rule.OpenTime,
			&rule.CloseTime,
			&rule.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: GetBusinessHours - scan rule: %w", ErrScanRow, err)
		}

		weekday, err := domain.ParseWeekday(day)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBusinessHours, err)
		}
		rule.DayOfWeek = weekday

		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBusinessHours, day, err)
		}
		hours[weekday] = rule
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetBusinessHours - rows error: %w", ErrScanRow, err)
	}

	return hours, nil
}

// SeedBusinessHours заполняет часы работы, не трогая уже существующие дни недели.
// Возвращает количество добавленных дней.
func (r *Repository) SeedBusinessHours(ctx context.Context, hours domain.BusinessHours) (int, error) {
	if len(hours) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("business_hours").
		Columns("day_of_week", "is_open", "open_time", "close_time", "is_active")
	for day := 0; day < 7; day++ {
		rule, ok := hours[time.Weekday(day)]
		if !ok {
			continue
		}
		insertBuilder = insertBuilder.Values(
			domain.WeekdayName(rule.DayOfWeek),
			rule.IsOpen,
			rule.OpenTime,
			rule.CloseTime,
			rule.IsActive,
		)
	}

	query, args, err := insertBuilder.
		Suffix("ON CONFLICT (day_of_week) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SeedBusinessHours - build insert query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: SeedBusinessHours - execute insert: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: SeedBusinessHours - get rows affected: %w", ErrExecQuery, err)
	}

	return int(rowsAffected), nil
}

// scanServices сканирует результаты запроса в слайс услуг
func scanServices(rows *sql.Rows) ([]*domain.Service, error) {
	services := make([]*domain.Service, 0)
	for rows.Next() {
		var (
			s          domain.Service
			categoryID sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID,
			&categoryID,
			&s.CategoryName,
			&s.Name,
			&s.Price,
			&s.DurationMinutes,
			&s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: scanServices - scan service: %w", ErrScanRow, err)
		}
		if categoryID.Valid {
			id := categoryID.Int64
			s.CategoryID = &id
		}
		services = append(services, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanServices - rows error: %w", ErrScanRow, err)
	}

	return services, nil
}
