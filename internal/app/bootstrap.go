package app

import (
	"errors"
	"fmt"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/provider"
	"github.com/lumen-optics/internal/router"
	"github.com/lumen-optics/internal/worker"
)

// BuildRunner 按启动模式组装 HTTP 与队列消费服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !validMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container := provider.NewContainer(cfg)
	services := make([]Service, 0, 2)

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeAll && errors.Is(err, worker.ErrQueueDisabled):
			// 队列关闭时通知邮件走同步发送
			logger.Warnw("app_worker_skipped", "error", err)
		default:
			_ = container.Close()
			return nil, err
		}
	}

	if len(services) == 0 {
		_ = container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.onStop = container.Close
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	opts = normalizeOptions(opts)

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}
