package autoload

import (
	configx "github.com/tanpawarit/brand-intelligence-agent/pkg/config"
	logx "github.com/tanpawarit/brand-intelligence-agent/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
