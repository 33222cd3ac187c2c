package catalogevents

import "errors"

var (
	// ErrInvalidRoutingKey возвращается для ключа не вида <source>.<receiver>.<resource>.changed
	ErrInvalidRoutingKey = errors.New("catalogevents: invalid routing key")

	// ErrConnect возвращается при ошибке подключения к RabbitMQ
	ErrConnect = errors.New("catalogevents: failed to connect")

	// ErrSetup возвращается при ошибке объявления exchange, очереди или подписки
	ErrSetup = errors.New("catalogevents: failed to set up queue")
)
