package main

import (
	"context"
	"time"

	"github.com/niksmo/pcbuild/config"
	"github.com/niksmo/pcbuild/internal/app"
	"github.com/niksmo/pcbuild/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	pcbuildService := app.New(sigCtx, cfg)

	pcbuildService.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	pcbuildService.Close(ctx)
}
