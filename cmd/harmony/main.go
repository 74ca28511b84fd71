// Command harmony serves the data harmony REST API and single-page assets.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/R3E-Network/data_harmony/internal/app/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx)
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	runErr := application.Run(ctx)
	stop()

	if err := application.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("server error: %v", runErr)
	}
}
