package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jilai-deployer/cmd/root"
	"jilai-deployer/controllers"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/middleware"
	"jilai-deployer/internal/store"
	"jilai-deployer/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var listenAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动只读状态服务",
	Long:  "提供 /healthz、/metrics 和部署运行记录查询接口, 不会触发任何部署",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return startServer(ctx)
	},
}

/**
 * Build the gin engine with every route registered
 * @param {*services.Server} server - Status server
 * @returns {*gin.Engine} Router ready to serve
 */
func NewRouter(server *services.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.MetricsMiddleware())

	controllers.NewAPIController(server).RegisterRoutes(router)
	controllers.NewRunController(server).RegisterRoutes(router)
	return router
}

func startServer(ctx context.Context) error {
	cfg := config.Current()
	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}
	gin.SetMode(cfg.Server.Mode)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	server := services.NewServer(config.Current, &store.RunRepo{DB: db})
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: NewRouter(server),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Status server listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down status server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serverCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "侦听地址(默认 server.address)")
	root.RootCmd.AddCommand(serverCmd)
}
