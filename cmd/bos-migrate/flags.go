package main

import (
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/Cray-HPE/bos-sub000/internal/cliflag"
)

// globalConfig holds every setting bos-migrate accepts. Scoped down from
// bos-reconciler's: migrate only ever touches the component, session,
// and template keyspaces, never HSM/PCS/CFS/IMS/BSS.
type globalConfig struct {
	LogLevel int

	RedisAddr  string
	ReportPath string
}

var (
	logLevelFlag  = cliflag.Config{Name: "log-level", Usage: "the higher the number the more verbose"}
	redisAddrFlag = cliflag.Config{Name: "redis-addr", Usage: "redis host:port; empty uses an in-memory store (a no-op run)"}
	reportFlag    = cliflag.Config{Name: "report-path", Usage: "path to write the YAML repair report to; empty skips writing one"}
)

func registerFlags(fs *cliflag.Set, gc *globalConfig) {
	fs.Register(logLevelFlag, ffval.NewValueDefault(&gc.LogLevel, 0))
	fs.Register(redisAddrFlag, ffval.NewValueDefault(&gc.RedisAddr, ""))
	fs.Register(reportFlag, ffval.NewValueDefault(&gc.ReportPath, ""))
}
