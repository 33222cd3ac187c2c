package generate_slots

import "errors"

var (
	// ErrNoActiveServices возвращается, когда в каталоге нет активных услуг
	ErrNoActiveServices = errors.New("generate_slots: no active services")

	// ErrGenerationInProgress возвращается, когда генерация уже выполняется другим процессом
	ErrGenerationInProgress = errors.New("generate_slots: generation already in progress")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("generate_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("generate_slots: internal error")
)
