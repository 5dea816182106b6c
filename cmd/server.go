package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"RaspCD/cache"
	"RaspCD/config"
	"RaspCD/core/disc"
	"RaspCD/core/events"
	"RaspCD/core/hotplug"
	"RaspCD/core/hub"
	"RaspCD/core/info"
	"RaspCD/core/jukebox"
	"RaspCD/core/musicbrainz"
	"RaspCD/core/player"
	"RaspCD/db"
	"RaspCD/logger"
	"RaspCD/model"
	"RaspCD/repository"
	"RaspCD/server"
	"RaspCD/storage"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	queueCapacity  = 8
	rescanInterval = 5 * time.Second
)

var serverCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动光盘播放服务",
	Long:  `监听光驱，识别并播放音频 CD，同时提供 Web 界面和 WebSocket 状态推送`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func newMusicBrainz(cfg *config.Config) *musicbrainz.Client {
	return musicbrainz.NewClient(cfg.MusicBrainzURL, cfg.CoverArtURL, cfg.MusicBrainzContact, cfg.LookupTimeout)
}

func newReader(cfg *config.Config, mb *musicbrainz.Client) *disc.Reader {
	tool := disc.CDDiscID{Path: cfg.CDDiscIDPath, Device: cfg.CDDevice, Timeout: cfg.LookupTimeout}
	return disc.NewReader(cfg.CDDevice, mb, tool, cache.NewDiscCache(cache.RedisClient))
}

func newControl(cfg *config.Config) (player.Control, error) {
	switch cfg.Player {
	case config.PlayerMPV:
		return player.NewMPV(cfg.MPVPath, cfg.MPVSocket, cfg.CDDevice, cfg.PlayerTimeout), nil
	case config.PlayerMPD:
		return player.NewMPD(cfg.MPDAddr, cfg.MPDPassword, cfg.PlayerTimeout), nil
	default:
		return nil, fmt.Errorf("unknown PLAYER %q (want %s or %s)", cfg.Player, config.PlayerMPV, config.PlayerMPD)
	}
}

// connectBackends starts the optional Redis, MySQL and MinIO backends. A
// backend that fails to come up is logged and left disabled.
func connectBackends(cfg *config.Config) (repository.LibraryRepository, *storage.CoverStore, func()) {
	var closers []func()

	if cache.Enabled(cfg) {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis unavailable, lookup cache disabled", logger.ErrorField(err))
		} else {
			closers = append(closers, func() { cache.CloseRedis() })
		}
	}

	var library repository.LibraryRepository
	if db.Enabled(cfg) {
		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Warn("MySQL unavailable, using in-memory library", logger.ErrorField(err))
		} else if err := db.AutoMigrate(); err != nil {
			logger.Warn("library migration failed, using in-memory library", logger.ErrorField(err))
			db.CloseGormDB()
		} else {
			library = repository.NewGormLibraryRepository(db.GormDB)
			closers = append(closers, func() { db.CloseGormDB() })
		}
	}
	if library == nil {
		library = repository.NewMemoryLibraryRepository()
	}

	var covers *storage.CoverStore
	if storage.Enabled(cfg) {
		store, err := storage.NewCoverStore(cfg)
		if err != nil {
			logger.Warn("MinIO unavailable, cover art is redirected", logger.ErrorField(err))
		} else {
			covers = store
		}
	}

	return library, covers, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	control, err := newControl(cfg)
	if err != nil {
		return err
	}
	if c, ok := control.(io.Closer); ok {
		defer c.Close()
	}

	library, covers, closeBackends := connectBackends(cfg)
	defer closeBackends()

	mb := newMusicBrainz(cfg)
	session := model.NewSession(cfg.DefaultVolume)
	reader := newReader(cfg, mb)
	ctrl := player.NewController(session, reader, control, cfg.PlayerTimeout)
	ctrl.OnStart(jukebox.RecordPlays(library))
	if covers != nil {
		ctrl.OnStart(jukebox.MirrorCovers(mb, covers))
	}

	builder := info.NewBuilder(session, ctrl, library)
	h := hub.NewHub()
	svc := jukebox.New(ctrl, builder, events.NewQueue(queueCapacity), h, hotplug.NewUdev(), jukebox.Options{
		PollInterval: cfg.PollInterval,
		SettleDelay:  cfg.SettleDelay,
		Rescan:       rescanInterval,
		Drive:        reader,
	})

	deps := server.Deps{
		Addr:     cfg.Addr(),
		Name:     cfg.Name,
		WebDir:   cfg.WebDir,
		Info:     builder,
		Library:  library,
		CoverURL: mb.CoverArtURL,
		Hub:      h,
		Commands: svc.HandleMessage,
	}
	if covers != nil {
		deps.Covers = covers
	}
	srv := server.New(deps)

	logger.Info("RaspCD starting",
		logger.String("name", cfg.Name),
		logger.String("device", cfg.CDDevice),
		logger.String("player", cfg.Player),
		logger.String("config", cfg.Path))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return h.Run(gctx) })
	g.Go(func() error { return svc.Notify(gctx) })
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error {
		return config.Watch(gctx, cfg.Path, func(next *config.Config) {
			srv.SetName(next.Name)
			logger.Info("configuration reloaded", logger.String("name", next.Name))
		})
	})

	err = g.Wait()
	logger.Info("RaspCD stopped")
	return err
}
