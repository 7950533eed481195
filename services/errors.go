package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed  = errors.New("validation failed")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrDataURLRequired   = errors.New("tournament data url is required")
	ErrPollingNotEnabled = errors.New("polling is not enabled for this tournament")

	// Ошибки конфликтов
	ErrUserUsernameConflict = errors.New("username is already in use")
	// ErrPersistenceConflict - одновременная запись одной и той же партии,
	// транзакция опроса откатывается и повторяется на следующем тике.
	ErrPersistenceConflict = errors.New("concurrent write detected, poll cycle rolled back")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки источника данных
	ErrDataFetchFailed = errors.New("failed to fetch tournament data file")
	ErrDataParseFailed = errors.New("failed to parse tournament data file")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrDivisionNotFound     = errors.New("division not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrVersionNotFound      = errors.New("tournament data version not found")
	ErrCurrentMatchNotFound = errors.New("current match not found")

	// Хранилище файлов (фото игроков) не сконфигурировано
	ErrStorageNotConfigured = errors.New("file storage is not configured")
)
