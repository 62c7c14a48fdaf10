package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/web/article"
	commentDao "github.com/Laisky/laisky-newsroom/internal/web/comment/dao"
	commentModel "github.com/Laisky/laisky-newsroom/internal/web/comment/model"
	"github.com/Laisky/laisky-newsroom/internal/web/user"
	"github.com/Laisky/laisky-newsroom/library/jwt"
	"github.com/Laisky/laisky-newsroom/library/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `migrate db and bootstrap the administrator account`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		get := sharedConfigGetter()

		gdb, err := openGorm(ctx, get)
		if err != nil {
			log.Logger.Panic("connect db", zap.Error(err))
		}

		if err = migrate(ctx, gdb, get); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}

// migrate creates every table and index, then bootstraps settings.admin if configured
func migrate(ctx context.Context, gdb *gorm.DB, get configGetter) error {
	if err := gdb.WithContext(ctx).AutoMigrate(
		&user.User{},
		&article.Article{},
		&commentModel.Comment{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	if err := commentDao.EnsureIndexes(ctx, gdb, log.Logger.Named("migrate")); err != nil {
		return errors.WithStack(err)
	}

	email := stringValue(get, "settings.admin.email")
	if email == "" {
		log.Logger.Info("migrated, no administrator configured")
		return nil
	}

	signer, err := jwt.New([]byte(stringValue(get, "settings.secret")), tokenTTL(get), nil)
	if err != nil {
		return errors.Wrap(err, "new jwt")
	}
	users, err := user.NewService(gdb, signer, log.Logger.Named("migrate"))
	if err != nil {
		return errors.Wrap(err, "new user service")
	}

	admin, err := users.Bootstrap(ctx, email,
		stringValue(get, "settings.admin.password"),
		stringValue(get, "settings.admin.name"),
	)
	if err != nil {
		return errors.Wrap(err, "bootstrap administrator")
	}

	log.Logger.Info("migrated", zap.Int64("admin_uid", admin.ID))
	return nil
}
