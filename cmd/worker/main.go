package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/registro-museografico/museum-registry/config"
	"github.com/registro-museografico/museum-registry/internal/bootstrap"
	"github.com/registro-museografico/museum-registry/internal/chat/faq"
	"github.com/registro-museografico/museum-registry/internal/registry/repository"
	"github.com/registro-museografico/museum-registry/internal/registry/staging"
)

const usage = "usage: worker ask <question...> | worker sweep [maxAge]"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	switch os.Args[1] {
	case "ask":
		runAsk(os.Args[2:])
	case "sweep":
		runSweep(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
}

// runAsk prints the assistant's answer to a question.
func runAsk(args []string) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		log.Fatal("usage: worker ask <question...>")
	}

	r, err := faq.Load()
	if err != nil {
		log.Fatalf("knowledge base: %v", err)
	}
	fmt.Println(r.Respond(question))
}

// runSweep removes staged uploads of drafts no longer stored in Redis and
// untouched for maxAge (STAGING_MAX_AGE by default).
func runSweep(args []string) {
	cfg, err := config.LoadSweep()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	maxAge := cfg.Staging.MaxAge
	if len(args) > 0 {
		if maxAge, err = time.ParseDuration(args[0]); err != nil {
			log.Fatalf("invalid maxAge %q: %v", args[0], err)
		}
	}

	ctx := context.Background()
	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{URL: cfg.Redis.URL})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	drafts := repository.NewDraftRepository(rdb, cfg.Redis.DraftTTL)

	area, err := staging.NewArea(cfg.Staging.Dir)
	if err != nil {
		rdb.Close()
		log.Fatalf("staging area: %v", err)
	}
	removed, err := area.Sweep(ctx, maxAge, drafts.Exists)
	rdb.Close()
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	fmt.Printf("removed %d staged draft(s) untouched for %s from %s\n", removed, maxAge, area.Root())
}
