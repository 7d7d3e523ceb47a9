package main

import (
	"context"
	"log"

	"github.com/Apurer/go-distribution-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("distribution API failed: %v", err)
	}
}
