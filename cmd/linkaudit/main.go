package main

import (
	"log"

	"github.com/MrSnakeDoc/linkaudit/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ linkaudit failed to start: %v", err)
	}
}
