package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.RWMutex
	root *zap.Logger
)

// Init construye el logger del proceso. Lo llama cmd/fabric una vez cargada la config;
// llamadas posteriores no lo reemplazan.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = build(cfg)
	}
}

// Replace fija el logger del proceso sin importar Init. Sólo tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	root = l
	mu.Unlock()
}

// L retorna el logger del proceso. Sin Init previo (tests, comandos remotos)
// arranca uno dev en nivel info.
func L() *zap.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info", ServiceName: "fabric"})
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Sync vacía los buffers del logger del proceso, si existe.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return nil
	}
	return root.Sync()
}
