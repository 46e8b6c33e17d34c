package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/cliflag"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
	"github.com/Cray-HPE/bos-sub000/internal/imageresolver"
	"github.com/Cray-HPE/bos-sub000/internal/metrics"
	"github.com/Cray-HPE/bos-sub000/internal/operator"
	"github.com/Cray-HPE/bos-sub000/internal/retrypolicy"
	"github.com/Cray-HPE/bos-sub000/internal/rootfs"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/store/redisstore"
)

// redis logical database indices, one per keyspace (spec §4.1: the
// component, session, template, and options records must not share a
// keyspace; the bss_token -> boot_artifacts cache gets its own for the
// same reason).
const (
	redisDBComponents    = 0
	redisDBSessions      = 1
	redisDBTemplates     = 2
	redisDBOptions       = 3
	redisDBBootArtifacts = 4
)

func Execute(ctx context.Context, args []string) error {
	gc := &globalConfig{}
	fs := &cliflag.Set{FlagSet: ff.NewFlagSet("bos-reconciler")}
	registerFlags(fs, gc)

	cli := &ff.Command{
		Name:     "bos-reconciler",
		Usage:    "bos-reconciler [flags]",
		LongHelp: "Boot Orchestration Service reconciliation engine.",
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
	cliLog := log.WithName("cli")
	cliLog.Info("starting bos-reconciler", "redisAddr", gc.RedisAddr)

	componentsKV, sessionsKV, templatesKV, optionsKV, bootArtifactsKV := buildStores(gc)

	componentStore := store.NewComponentStore(componentsKV)
	sessionStore := store.NewSessionStore(sessionsKV)
	templateStore := store.NewTemplateStore(templatesKV)
	optionsStore := store.NewOptionsStore(optionsKV)

	httpClient := httpclient.New(httpclient.DefaultConfig())
	defaults := config.Defaults()

	hsm := clients.NewHSM(gc.HSMURL.String(), httpClient, defaults.HSMQueryBatchSize)
	pcs := clients.NewPCS(gc.PCSURL.String(), httpClient)
	cfs := clients.NewCFS(gc.CFSURL.String(), httpClient, defaults.CFSPatchBatchSize)
	ims := clients.NewIMS(gc.IMSURL.String(), httpClient)
	bss := clients.NewBSS(gc.BSSURL.String(), httpClient)
	tenants := clients.NewTenantAuthority(gc.TenantURL.String(), httpClient)
	bootArtifactCache := store.NewBootArtifactCache(bootArtifactsKV)

	s3Client, err := clients.NewS3(ctx, clients.S3Config{
		Gateway:   gc.S3Gateway,
		Protocol:  gc.S3Protocol,
		AccessKey: gc.S3AccessKey,
		SecretKey: gc.S3SecretKey,
		Region:    gc.S3Region,
	})
	if err != nil {
		return fmt.Errorf("failed to construct S3 client: %w", err)
	}

	rootfsRegistry := rootfs.NewRegistry(rootfs.NewSBPS())
	if gc.RootfsProvider != "" {
		// Look the configured name up once so a typo surfaces at startup.
		// The value is not passed to the resolver: a boot set that names
		// no provider resolves to NoOp.
		if rootfsRegistry.Get(gc.RootfsProvider).Name() == "" {
			cliLog.Info("WARNING: unknown default rootfs provider, falling back to no-op", "provider", gc.RootfsProvider)
		}
	}
	resolver := imageresolver.New(s3Client, ims, rootfsRegistry)

	backoff := retrypolicy.NewCalculator(defaults.PollingFrequency, defaults.MaxPowerOnWaitTime)

	reg := prometheus.NewRegistry()
	met := metrics.NewWithRegistry(reg)

	loadOptions := func(ctx context.Context) (config.Options, error) {
		return optionsStore.Load(ctx)
	}

	pool := operator.NewPool(log, loadOptions,
		&operator.SessionSetup{
			Sessions:   sessionStore,
			Components: componentStore,
			Templates:  templateStore,
			HSM:        hsm,
			Tenants:    tenants,
			Resolver:   resolver,
			Cache:      bootArtifactCache,
		},
		&operator.PowerOn{Components: componentStore, PCS: pcs, HSM: hsm, Backoff: backoff},
		&operator.PowerOffGraceful{Components: componentStore, PCS: pcs, HSM: hsm},
		&operator.PowerOffForceful{Components: componentStore, PCS: pcs, HSM: hsm},
		&operator.ActualStateRefresh{Components: componentStore, BSS: bss, Cache: bootArtifactCache},
		&operator.Configuring{Components: componentStore, CFS: cfs},
		&operator.Status{Components: componentStore, PCS: pcs, CFS: cfs},
		&operator.ActualStateCleanup{Components: componentStore},
		&operator.SessionCompletion{Sessions: sessionStore, Components: componentStore},
		&operator.SessionCleanup{Sessions: sessionStore},
		&operator.MetricsSnapshot{Components: componentStore, Sessions: sessionStore, Metrics: met},
	).WithMetrics(met)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(ctx)
	})
	g.Go(func() error {
		return serveMetrics(ctx, log.WithName("metrics"), gc.MetricsAddr, reg)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildStores(gc *globalConfig) (components, sessions, templates, options, bootArtifacts store.KV) {
	if gc.RedisAddr == "" {
		return memstore.New(), memstore.New(), memstore.New(), memstore.New(), memstore.New()
	}
	newClient := func(db int) *redis.Client {
		return redis.NewClient(&redis.Options{Addr: gc.RedisAddr, DB: db})
	}
	return redisstore.New(newClient(redisDBComponents)),
		redisstore.New(newClient(redisDBSessions)),
		redisstore.New(newClient(redisDBTemplates)),
		redisstore.New(newClient(redisDBOptions)),
		redisstore.New(newClient(redisDBBootArtifacts))
}

func serveMetrics(ctx context.Context, log logr.Logger, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
