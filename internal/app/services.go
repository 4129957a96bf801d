package app

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/kiavash/daftar/config"
	"github.com/kiavash/daftar/internal/render"
	"github.com/kiavash/daftar/internal/service/board"
	"github.com/kiavash/daftar/internal/session"
	"github.com/kiavash/daftar/internal/store"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideStore,
		ProvideSessionManager,
		ProvideBoardService,
		ProvideRenderer,
	),
)

func ProvideStore(lc fx.Lifecycle, db *sql.DB, cfg *config.Config) *store.Store {
	st := store.New(db)
	if cfg.Database.Migrations.AutoMigrate {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				slog.Debug("ensuring guestbook schema")
				return st.EnsureSchema(ctx)
			},
		})
	}
	return st
}

func ProvideSessionManager(rdb *redis.Client, cfg *config.Config) *session.Manager {
	return session.NewManager(session.NewRedisStore(rdb), cfg.Session)
}

func ProvideBoardService(st *store.Store, sessions *session.Manager, cfg *config.Config) board.Service {
	return board.New(st, sessions, cfg.Board.Size())
}

func ProvideRenderer(cfg *config.Config) (*render.Renderer, error) {
	return render.New(cfg.Board.Timezone)
}
