package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Laisky/laisky-newsroom/internal/web"
	"github.com/Laisky/laisky-newsroom/internal/web/article"
	commentCtl "github.com/Laisky/laisky-newsroom/internal/web/comment/controller"
	commentDao "github.com/Laisky/laisky-newsroom/internal/web/comment/dao"
	commentSvc "github.com/Laisky/laisky-newsroom/internal/web/comment/service"
	"github.com/Laisky/laisky-newsroom/internal/web/livestream"
	"github.com/Laisky/laisky-newsroom/internal/web/upload"
	"github.com/Laisky/laisky-newsroom/internal/web/user"
	"github.com/Laisky/laisky-newsroom/library/db/postgres"
	"github.com/Laisky/laisky-newsroom/library/db/redis"
	"github.com/Laisky/laisky-newsroom/library/jwt"
	"github.com/Laisky/laisky-newsroom/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `HTTP API service for articles, comments, users, uploads and the live stream`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// openGorm connects to the configured postgres database
func openGorm(ctx context.Context, get configGetter) (*gorm.DB, error) {
	pg, err := postgres.NewDB(ctx, buildPostgresDialInfo(get))
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	lvl := gormLogger.Warn
	if gconfig.Shared.GetBool("debug") {
		lvl = gormLogger.Info
	}

	return pg.Gorm(lvl)
}

func runAPI(ctx context.Context) error {
	get := sharedConfigGetter()
	timeout := requestTimeout(get)

	if err := jwt.Initialize([]byte(stringValue(get, "settings.secret")), tokenTTL(get)); err != nil {
		return errors.Wrap(err, "setup jwt")
	}

	gdb, err := openGorm(ctx, get)
	if err != nil {
		return errors.WithStack(err)
	}

	rdb, err := redis.NewDB(ctx, buildRedisOptions(get))
	if err != nil {
		return errors.Wrap(err, "connect redis")
	}
	defer rdb.Close() // nolint: errcheck

	s3cli, err := newMinioClient(get)
	if err != nil {
		return errors.WithStack(err)
	}

	articles, err := article.NewService(gdb, log.Logger.Named("article"))
	if err != nil {
		return errors.Wrap(err, "new article service")
	}
	users, err := user.NewService(gdb, jwt.Instance, log.Logger.Named("user"))
	if err != nil {
		return errors.Wrap(err, "new user service")
	}

	commentStore, err := commentDao.New(gdb, articles,
		log.Logger.Named("comment_dao"),
		nil,
		intValue(get, "settings.comments.max_content_length", commentDao.DefaultMaxContentLength),
	)
	if err != nil {
		return errors.Wrap(err, "new comment store")
	}
	if err = commentDao.EnsureIndexes(ctx, gdb, log.Logger.Named("comment_dao")); err != nil {
		return errors.WithStack(err)
	}
	comments, err := commentSvc.New(commentStore, log.Logger.Named("comment"))
	if err != nil {
		return errors.Wrap(err, "new comment service")
	}

	streams, err := livestream.NewService(rdb.Client(), log.Logger.Named("livestream"))
	if err != nil {
		return errors.Wrap(err, "new live stream service")
	}
	uploads, err := upload.NewService(s3cli, buildUploadSettings(get), log.Logger.Named("upload"))
	if err != nil {
		return errors.Wrap(err, "new upload service")
	}

	if gconfig.Shared.GetBool("dry") {
		log.Logger.Info("dry run, every component is ready")
		return nil
	}

	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	server := web.NewServer(web.Options{
		CORSDomains: corsDomains(get),
		Tokens:      jwt.Instance,
		Actors:      users,
		Logger:      log.Logger.Named("gin"),
	},
		commentCtl.New(comments, timeout).RegisterRoutes,
		article.NewController(articles, comments, timeout).RegisterRoutes,
		user.NewController(users, timeout).RegisterRoutes,
		func(r gin.IRouter) { livestream.RegisterRoutes(r, streams, timeout) },
		func(r gin.IRouter) { upload.RegisterRoutes(r, uploads, timeout) },
	)

	return web.RunServer(ctx, gconfig.Shared.GetString("listen"), server)
}
