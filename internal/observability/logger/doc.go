// Package logger provee el logger Zap singleton de fabric con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada job o request RPC lleva su propio logger "scoped" con campos
//     adicionales (job_id, action, method) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En el executor o en los servicios (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("shard added", logger.Table(table), logger.GroupID(groupID))
package logger
