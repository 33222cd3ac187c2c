package generate_slots

import "time"

// Request запрос на генерацию слотов
type Request struct {
	From       *time.Time // по умолчанию сегодня в часовом поясе салона
	Days       int        // 0 = горизонт из конфигурации
	Regenerate bool       // удалить все слоты перед генерацией
}

// Response итог генерации
type Response struct {
	From           string `json:"from"`
	To             string `json:"to"`
	DatesProcessed int    `json:"datesProcessed"`
	ClosedDates    int    `json:"closedDates"`
	Planned        int    `json:"planned"`
	Created        int    `json:"created"`
	Deleted        int    `json:"deleted"`
}
