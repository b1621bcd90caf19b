package service

import "errors"

// Типизированные ошибки координации. Каждая ошибка должна оставаться
// различимой снаружи, чтобы слой представления мог объяснить причину.
var (
	// ErrNotFound - пользователь или запись не найдены
	ErrNotFound = errors.New("service: not found")
	// ErrInvalidState - операция недопустима для текущего статуса записи
	ErrInvalidState = errors.New("service: invalid state")
	// ErrUnauthorized - вызывающий не является адресатом операции
	ErrUnauthorized = errors.New("service: unauthorized")
	// ErrAlreadyPartners - пользователи уже связаны как партнёры
	ErrAlreadyPartners = errors.New("service: already partners")
	// ErrDuplicateRequest - между парой уже есть активная заявка
	ErrDuplicateRequest = errors.New("service: duplicate request")
	// ErrInvalidDuration - интервал короче минимальной сессии или вне границ дня
	ErrInvalidDuration = errors.New("service: invalid duration")
	// ErrNoPartner - у пользователя нет привязанного партнёра
	ErrNoPartner = errors.New("service: no partner")
)
