// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STATE CHANGED HANDLER
// Отправляет снимок прогресса на сервер после каждой локальной мутации.
//
// Режим строго fire-and-forget:
// 1. Ошибка отправки логируется и глотается - локальное состояние уже
//    сохранено и остаётся источником истины.
// 2. Никаких повторов и очередей: потерянная отправка возместится
//    следующей мутацией или слиянием при следующем входе.
// 3. Обработчик никогда не возвращает ошибку шине - сбой сервера не
//    должен отражаться на издателе события.
// ═══════════════════════════════════════════════════════════════════════════

// OnStateChangedHandler отправляет снимки на сервер по событию
// sync.state_changed.
type OnStateChangedHandler struct {
	repo           progress.Repository
	remote         progress.RemoteStore
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	// pushTimeout ограничивает один вызов Push.
	pushTimeout time.Duration
}

// StateChangedConfig содержит конфигурацию обработчика.
type StateChangedConfig struct {
	// PushTimeout - предел времени одной отправки.
	PushTimeout time.Duration
}

// DefaultStateChangedConfig возвращает конфигурацию по умолчанию.
func DefaultStateChangedConfig() StateChangedConfig {
	return StateChangedConfig{PushTimeout: 15 * time.Second}
}

// NewOnStateChangedHandler создаёт новый обработчик.
func NewOnStateChangedHandler(
	repo progress.Repository,
	remote progress.RemoteStore,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config StateChangedConfig,
) *OnStateChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PushTimeout == 0 {
		config = DefaultStateChangedConfig()
	}
	return &OnStateChangedHandler{
		repo:           repo,
		remote:         remote,
		eventPublisher: eventPublisher,
		logger:         logger,
		pushTimeout:    config.PushTimeout,
	}
}

// Register подписывает обработчик на шину событий.
func (h *OnStateChangedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventStateChanged, h.Handle)
}

// Handle обрабатывает событие изменения состояния.
func (h *OnStateChangedHandler) Handle(event shared.Event) error {
	changed, ok := event.(shared.StateChangedEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.pushTimeout)
	defer cancel()

	userID, err := shared.NewUserID(changed.UserID)
	if err != nil {
		h.logger.Warn("push skipped: bad user id in event",
			"user_id", changed.UserID, "error", err)
		return nil
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		h.logger.Warn("push skipped: cannot load snapshot",
			"user_id", changed.UserID, "error", err)
		return nil
	}

	if err := h.remote.Push(ctx, state); err != nil {
		h.logger.Warn("snapshot push failed",
			"user_id", changed.UserID,
			"reason", changed.Reason,
			"error", err)
		_ = h.eventPublisher.Publish(
			shared.NewPushFailedEvent(changed.UserID, err.Error()))
		return nil
	}

	h.logger.Debug("snapshot pushed",
		"user_id", changed.UserID,
		"reason", changed.Reason)
	return nil
}
