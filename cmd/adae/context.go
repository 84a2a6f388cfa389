package main

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/config"
	"github.com/wippyai/adae-bridge/crash"
	"github.com/wippyai/adae-bridge/engine"
)

const envConfigName = config.EnvPath

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	appOnce sync.Once
	app     *adae.Context
	appErr  error
	logger  *zap.Logger
	session string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		session:    uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// engineConfig resolves the configured output device.
func (c *commandContext) engineConfig() (engine.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return engine.Config{}, err
	}
	return cfg.ToEngine()
}

// runtime initializes the process-wide bridge state once. Crash reports are
// logged with the session id before reaching any JavaScript listener.
func (c *commandContext) runtime() (*adae.Context, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.appOnce.Do(func() {
		logger, err := cfg.NewLogger()
		if err != nil {
			c.appErr = err
			return
		}
		c.logger = logger.With(zap.String("session", c.session))
		c.app = adae.Init(
			adae.WithLogger(c.logger),
			adae.WithDebugCapacity(cfg.Logging.DebugBuffer),
		)
		sessionLogger := c.logger
		crash.SetHook(func(info *crash.Info) {
			sessionLogger.Error("engine crashed",
				zap.String("message", info.Message),
				zap.String("file", info.File),
				zap.Int("line", info.Line))
		})
		c.logger.Debug("runtime initialized", zap.String("config", c.configPath))
	})
	return c.app, c.appErr
}

func (c *commandContext) close() {
	if c.app == nil {
		return
	}
	c.app.Teardown()
	crash.SetHook(nil)
	_ = c.logger.Sync()
}
