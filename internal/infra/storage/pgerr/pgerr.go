package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// UniqueViolation возвращает имя нарушенного unique-ограничения, если ошибка вызвана им
func UniqueViolation(err error) (constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == codeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsForeignKeyViolation проверяет нарушение внешнего ключа
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation
}
