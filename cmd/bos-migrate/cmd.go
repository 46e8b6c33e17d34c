package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Cray-HPE/bos-sub000/internal/cliflag"
	"github.com/Cray-HPE/bos-sub000/internal/migrate"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/store/redisstore"
)

// redis logical database indices, matching cmd/bos-reconciler/cmd.go's
// so a migrate run against a live redis addr sees the same keyspaces
// the reconciler will.
const (
	redisDBComponents = 0
	redisDBSessions   = 1
	redisDBTemplates  = 2
)

func Execute(ctx context.Context, args []string) error {
	gc := &globalConfig{}
	fs := &cliflag.Set{FlagSet: ff.NewFlagSet("bos-migrate")}
	registerFlags(fs, gc)

	cli := &ff.Command{
		Name:     "bos-migrate",
		Usage:    "bos-migrate [flags]",
		LongHelp: "One-shot sanitizer for BOS component, session, and session-template records.",
		Flags:    fs.FlagSet,
	}
	if err := cli.Parse(args, ff.WithEnvVarPrefix("BOS")); err != nil {
		e := errors.New(ffhelp.Command(cli).String())
		if !errors.Is(err, ff.ErrHelp) {
			e = fmt.Errorf("%w\n%s", e, err)
		}
		return e
	}

	log := defaultLogger(gc.LogLevel)
	log.Info("starting bos-migrate", "redisAddr", gc.RedisAddr)

	componentsKV, sessionsKV, templatesKV := buildStores(gc)

	m := &migrate.Migrator{
		Components: componentsKV,
		Sessions:   sessionsKV,
		Templates:  templatesKV,
		Log:        log.WithName("migrate"),
	}

	report, err := m.Run(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migration complete",
		"componentsDeleted", report.ComponentsDeleted,
		"sessionsDeleted", report.SessionsDeleted,
		"templatesDeleted", report.TemplatesDeleted,
		"templatesRenamed", report.TemplatesRenamed,
		"templatesUpdated", report.TemplatesUpdated,
	)

	if gc.ReportPath != "" {
		f, err := os.Create(gc.ReportPath)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		if err := report.WriteYAML(f); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func buildStores(gc *globalConfig) (components, sessions, templates store.KV) {
	if gc.RedisAddr == "" {
		return memstore.New(), memstore.New(), memstore.New()
	}
	newClient := func(db int) *redis.Client {
		return redis.NewClient(&redis.Options{Addr: gc.RedisAddr, DB: db})
	}
	return redisstore.New(newClient(redisDBComponents)),
		redisstore.New(newClient(redisDBSessions)),
		redisstore.New(newClient(redisDBTemplates))
}
