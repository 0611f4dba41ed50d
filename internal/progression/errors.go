package progression

import "errors"

var (
	// ErrNotPurchased у пользователя нет доступа к уровню ("level locked").
	ErrNotPurchased = errors.New("level not purchased")
	// ErrAlreadyPurchased доступ к уровню уже создан.
	ErrAlreadyPurchased = errors.New("level already purchased")
	// ErrExpired срок доступа истёк ("renew required").
	ErrExpired = errors.New("level access expired")
	// ErrPaused уровень заморожен.
	ErrPaused = errors.New("level is paused")
	// ErrDayLocked запрошенный день ещё не открыт.
	ErrDayLocked = errors.New("day is locked")
	// ErrDayOutOfRange день вне диапазона [1,50].
	ErrDayOutOfRange = errors.New("day out of range")
	// ErrPauseBudgetExceeded исчерпан лимит заморозок или дней заморозки.
	ErrPauseBudgetExceeded = errors.New("pause budget exceeded")
	// ErrAlreadyPaused уровень уже заморожен.
	ErrAlreadyPaused = errors.New("level already paused")
	// ErrConcurrentModification запись изменена параллельным запросом.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrUnknownLevel неизвестный уровень.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrUnknownLessonType неизвестный тип урока.
	ErrUnknownLessonType = errors.New("unknown lesson type")
	// ErrTerminalLessonType итоговый тест отмечается только через проверку теста.
	ErrTerminalLessonType = errors.New("daily test is completed by submission only")
	// ErrContentNotFound нет контента урока для дня.
	ErrContentNotFound = errors.New("lesson content not found")
	// ErrDayNotPracticed не все уроки дня выполнены.
	ErrDayNotPracticed = errors.New("day lessons are not completed")
)
