// Package cache provee el cache de lecturas del directorio de shards.
//
// Soporta:
//   - Memory (in-process, go-cache)
//   - Redis (compartido entre varios procesos fabric)
//   - None (desactivado)
//
// Los valores son strings (JSON); cada llamador define sus keys.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, usa el TTL por defecto del backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina keys.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error

	// Stats retorna estadísticas del cache.
	Stats(ctx context.Context) (Stats, error)
}

// Stats contiene estadísticas del cache.
type Stats struct {
	Driver string `json:"driver"`
	Keys   int64  `json:"keys"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind       string // "memory" | "redis" | "none"
	DefaultTTL time.Duration
	Addr       string
	Password   string
	DB         int
	Prefix     string // Prefijo para todas las keys
}

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// New crea un cliente de cache según la configuración.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(ctx, cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Kind)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + k
}

// Nop es un cache que nunca guarda nada.
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) (string, error) { return "", ErrNotFound }
func (Nop) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (Nop) Delete(ctx context.Context, keys ...string) error { return nil }
func (Nop) Ping(ctx context.Context) error                   { return nil }
func (Nop) Close() error                                     { return nil }
func (Nop) Stats(ctx context.Context) (Stats, error)         { return Stats{Driver: "none"}, nil }
