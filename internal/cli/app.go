package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moodlink/internal/client"
	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/localstore"
	"github.com/moodlink/internal/logger"
	"github.com/moodlink/internal/session"
	"github.com/spf13/cobra"
)

// App 保存一次命令执行所需的依赖
type App struct {
	cfg config.ClientConfig
	log *logger.Logger
	loc *time.Location

	store *localstore.Store
	api   *client.Client
	boot  *session.Bootstrapper
}

// NewApp 构造 App，loc 为空时使用本地时区
func NewApp(cfg config.ClientConfig, log *logger.Logger, loc *time.Location) *App {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &App{cfg: cfg, log: log, loc: loc}
}

// NewRootCommand 构造根命令
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "moodlink",
		Short:         "Track moods with your partner from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "zodiac" {
				return nil
			}
			return a.open()
		},
	}

	root.PersistentFlags().StringVar(&a.cfg.BaseURL, "server", a.cfg.BaseURL, "moodlink server URL")
	root.PersistentFlags().StringVar(&a.cfg.StorePath, "store", a.cfg.StorePath, "local session store path")
	root.PersistentFlags().StringVar(&a.cfg.Language, "lang", a.cfg.Language, "output language (en or zh)")

	root.AddCommand(
		a.bootstrapCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.recordCommand(),
		a.summaryCommand(),
		a.zodiacCommand(),
	)
	return root
}

// Execute 执行命令并在结束后等待补充操作、关闭本地存储
func (a *App) Execute(ctx context.Context, args []string, out io.Writer) error {
	root := a.NewRootCommand()
	root.SetArgs(args)
	if out != nil {
		root.SetOut(out)
		root.SetErr(out)
	}
	err := root.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (a *App) open() error {
	if a.store != nil {
		return nil
	}
	store, err := localstore.Open(a.cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	a.store = store
	a.api = client.New(a.cfg.BaseURL)
	a.boot = session.NewBootstrapper(a.api, a.api, store, a.log).WithSignInTimeout(a.cfg.SignInTimeout)
	return nil
}

func (a *App) close() error {
	if a.boot != nil {
		a.boot.Wait()
	}
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// requireActive 恢复会话，未登录时返回提示
func (a *App) requireActive(ctx context.Context) (*session.User, error) {
	result := a.boot.Run(ctx)
	if result.State != session.StateActive {
		return nil, fmt.Errorf("not signed in, run `moodlink login` first (%v)", result.Cause)
	}
	return result.CurrentUser, nil
}

func printUser(w io.Writer, user *session.User) {
	fmt.Fprintf(w, "Signed in as %s <%s>\n", user.Name, user.Email)
	if user.PartnerCode != "" {
		fmt.Fprintf(w, "Partner code: %s\n", user.PartnerCode)
	}
}
