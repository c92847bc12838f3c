package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/soliplex/flasharb/cmd"
	"github.com/soliplex/flasharb/utils"
)

func main() {
	// Create context with cancellation tied to shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		utils.GetLogger().Info("Shutting down gracefully...")
		cancel()
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.GetLogger().Error("command failed", zap.Error(err))
		utils.CleanupLogger()
		os.Exit(1)
	}
	utils.CleanupLogger()
}
