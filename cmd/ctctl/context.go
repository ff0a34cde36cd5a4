package main

import (
	"os"
	"strings"
	"sync"

	"github.com/dgallion1/customtrans/internal/app"
	"github.com/dgallion1/customtrans/internal/config"
	"github.com/dgallion1/customtrans/internal/logging"
)

type commandContext struct {
	configFlag *string

	once   sync.Once
	app    *app.App
	appErr error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureApp loads the configuration and wires the stores on first use.
// Logs go to stderr so command output stays clean.
func (c *commandContext) ensureApp() (*app.App, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.appErr = err
			return
		}
		log, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = app.New(cfg, log)
	})
	return c.app, c.appErr
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
	}
}
