package controllers

import (
	"net/http"

	"github.com/osoriodev/tienda-backend/api/responses"
	"github.com/osoriodev/tienda-backend/pkg/config"
	"github.com/osoriodev/tienda-backend/pkg/db"
	pkgerrors "github.com/osoriodev/tienda-backend/pkg/errors"
	"github.com/osoriodev/tienda-backend/pkg/logger"
	"github.com/osoriodev/tienda-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tienda-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the datastore and, when configured, the cache. A nil
// redis pinger means caching is disabled and is reported as skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tienda-Env", cfg.App.Env)
		ctx := r.Context()

		checks := map[string]string{}

		if dbP == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database client not wired"))
			return
		}
		if err := dbP.Ping(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		checks["database"] = "ok"

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
			checks["redis"] = "ok"
		} else {
			checks["redis"] = "skipped"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
