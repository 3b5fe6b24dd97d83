package services

import (
	"errors"
	"log"
	"sync"
)

// Screen экран консоли. Активен ровно один.
type Screen string

const (
	ScreenInventory Screen = "inventory"
	ScreenProducts  Screen = "products"
	ScreenPlanning  Screen = "planning"
)

// ErrUnknownScreen запрошен несуществующий экран
var ErrUnknownScreen = errors.New("неизвестный экран")

// ShellService состояние оболочки консоли: активный экран и флаг
// администратора. Флаг — рекомендательное состояние интерфейса
// (скрывает кнопки удаления продукта и симуляции), а не граница
// безопасности: авторизацию обеспечивает не эта система.
type ShellService struct {
	mu      sync.RWMutex
	screen  Screen
	isAdmin bool
}

// NewShellService создает оболочку с экраном склада по умолчанию
func NewShellService() *ShellService {
	return &ShellService{
		screen: ScreenInventory,
	}
}

// SetScreen переключает активный экран
func (ss *ShellService) SetScreen(screen Screen) error {
	switch screen {
	case ScreenInventory, ScreenProducts, ScreenPlanning:
	default:
		return ErrUnknownScreen
	}

	ss.mu.Lock()
	ss.screen = screen
	ss.mu.Unlock()

	log.Printf("🖥️ Оболочка: активный экран — %s", screen)
	return nil
}

// Screen возвращает активный экран
func (ss *ShellService) Screen() Screen {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.screen
}

// SetAdmin переключает рекомендательный флаг администратора
func (ss *ShellService) SetAdmin(isAdmin bool) {
	ss.mu.Lock()
	ss.isAdmin = isAdmin
	ss.mu.Unlock()
	log.Printf("🔧 Оболочка: режим администратора: %v", isAdmin)
}

// IsAdmin возвращает флаг администратора
func (ss *ShellService) IsAdmin() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.isAdmin
}
