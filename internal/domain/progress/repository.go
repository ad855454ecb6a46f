package progress

import (
	"context"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем прогресса.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет локальное хранилище снимков прогресса.
//
// Снимок сохраняется целиком после каждой мутации: локальная запись
// является источником истины, сервер - лишь резервной копией.
type Repository interface {
	// Load загружает состояние ученика.
	// Повреждённый или отсутствующий снимок даёт чистое состояние
	// (NewUserState), а не ошибку: ученик начинает с нуля.
	Load(ctx context.Context, userID shared.UserID) (*UserState, error)

	// Save атомарно сохраняет полный снимок состояния.
	Save(ctx context.Context, state *UserState) error

	// Delete удаляет снимок ученика (выход из аккаунта).
	Delete(ctx context.Context, userID shared.UserID) error
}

// RemoteStore определяет серверное хранилище снимков.
//
// Fetch используется один раз при старте для слияния, Push - после
// каждой локальной мутации в режиме fire-and-forget: ошибка Push
// никогда не откатывает локальное состояние.
type RemoteStore interface {
	// Fetch возвращает серверный снимок состояния.
	// Возвращает shared.ErrNotFound, если на сервере записи нет.
	Fetch(ctx context.Context, userID shared.UserID) (*UserState, error)

	// Push отправляет полный снимок на сервер.
	Push(ctx context.Context, state *UserState) error
}
