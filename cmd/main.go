package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/mdb-curator/internal/app"
	"github.com/yungbote/mdb-curator/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	errc := make(chan error, 1)
	go func() { errc <- a.Run() }()

	select {
	case err := <-errc:
		if err != nil {
			a.Log.Error("Server exited", "error", err)
			a.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		a.Log.Info("Shutting down")
	}
}
