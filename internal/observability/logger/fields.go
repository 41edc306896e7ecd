package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - TRANSPORTE
// =================================================================================

// RequestID crea un campo para el ID del request RPC.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método remoto ("group.command").
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path HTTP.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - EXECUTOR
// =================================================================================

// JobID crea un campo para el ID del job.
func JobID(v string) zap.Field { return zap.String("job_id", v) }

// ProcedureID crea un campo para el ID de la cadena de jobs.
func ProcedureID(v string) zap.Field { return zap.String("procedure_id", v) }

// Action crea un campo para el nombre de la acción ejecutada.
func Action(v string) zap.Field { return zap.String("action", v) }

// Worker crea un campo para el número de worker.
func Worker(v int) zap.Field { return zap.Int("worker", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - DOMINIO
// =================================================================================

// Table crea un campo para la tabla shardeada.
func Table(v string) zap.Field { return zap.String("table", v) }

// ShardSpec crea un campo para el nombre de la especificación de sharding.
func ShardSpec(v string) zap.Field { return zap.String("sharding_specification", v) }

// GroupID crea un campo para el ID del grupo.
func GroupID(v string) zap.Field { return zap.String("group_id", v) }

// ServerUUID crea un campo para el UUID de un servidor.
func ServerUUID(v string) zap.Field { return zap.String("server_uuid", v) }

// Database crea un campo para la base de datos de persistencia.
func Database(v string) zap.Field { return zap.String("database", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
