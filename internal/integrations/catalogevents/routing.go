package catalogevents

import (
	"fmt"
	"strings"
)

// Resource тип измененного ресурса каталога
type Resource string

const (
	ResourceService       Resource = "service"
	ResourceBusinessHours Resource = "businesshours"
	ResourceAll           Resource = "_all_"
)

const eventChanged = "changed"

// RoutingKey разобранный ключ маршрутизации.
// Пример: catalog-admin.salon-booking.service.changed
type RoutingKey struct {
	Source   string
	Receiver string
	Resource Resource
	Event    string
}

// ParseRoutingKey разбирает ключ <source>.<receiver>.<resource>.changed
func ParseRoutingKey(key string) (RoutingKey, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 4 {
		return RoutingKey{}, fmt.Errorf("%w: %q", ErrInvalidRoutingKey, key)
	}
	for _, p := range parts {
		if p == "" {
			return RoutingKey{}, fmt.Errorf("%w: %q", ErrInvalidRoutingKey, key)
		}
	}
	if parts[3] != eventChanged {
		return RoutingKey{}, fmt.Errorf("%w: unsupported event %q", ErrInvalidRoutingKey, parts[3])
	}

	return RoutingKey{
		Source:   parts[0],
		Receiver: parts[1],
		Resource: Resource(parts[2]),
		Event:    parts[3],
	}, nil
}

// Known возвращает true для ресурсов, влияющих на слоты
func (r Resource) Known() bool {
	switch r {
	case ResourceService, ResourceBusinessHours, ResourceAll:
		return true
	}
	return false
}
