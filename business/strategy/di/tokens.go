// Package di contains dependency injection tokens for the strategy context.
package di

import (
	"github.com/fd1az/defi-optimizer/business/strategy/app"
	"github.com/fd1az/defi-optimizer/internal/di"
)

// Public service tokens
var (
	Runner = di.NewToken[*app.Runner]("strategy.Runner")
)

// Private dependency tokens
var (
	Detector = di.NewToken[*app.Detector]("strategy:detector")
	Executor = di.NewToken[*app.Executor]("strategy:executor")
	Reporter = di.NewToken[app.Reporter]("strategy:reporter")
)

func GetRunner(c di.ServiceRegistry) *app.Runner {
	return di.GetToken(c, Runner)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetExecutor(c di.ServiceRegistry) *app.Executor {
	return di.GetToken(c, Executor)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
