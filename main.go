package main

import (
	"log"
)

// Build infos injected with -ldflags "-X main.GitCommit=... -X main.GitTag=... -X main.BuildTime=...".
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("books api failed to initialize: ", err)
	}
	if err = app.Run(); err != nil {
		log.Fatal("books api exited. check logs for more details: ", err)
	}
}
