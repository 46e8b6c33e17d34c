package main

import (
	"net/url"

	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/Cray-HPE/bos-sub000/internal/cliflag"
)

// globalConfig holds every setting bos-reconciler accepts, registered
// onto a *ff.FlagSet the way cmd/tinkerbell/flag registers GlobalConfig.
type globalConfig struct {
	LogLevel int

	RedisAddr string

	HSMURL    url.URL
	PCSURL    url.URL
	CFSURL    url.URL
	IMSURL    url.URL
	BSSURL    url.URL
	TenantURL url.URL

	S3Gateway   string
	S3Protocol  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string

	RootfsProvider string

	MetricsAddr string
}

var (
	logLevelFlag = cliflag.Config{Name: "log-level", Usage: "the higher the number the more verbose"}
	redisAddrFlag = cliflag.Config{Name: "redis-addr", Usage: "redis host:port; empty uses an in-memory store"}

	hsmURLFlag    = cliflag.Config{Name: "hsm-url", Usage: "hardware state manager base URL"}
	pcsURLFlag    = cliflag.Config{Name: "pcs-url", Usage: "power control service base URL"}
	cfsURLFlag    = cliflag.Config{Name: "cfs-url", Usage: "configuration framework service base URL"}
	imsURLFlag    = cliflag.Config{Name: "ims-url", Usage: "image management service base URL"}
	bssURLFlag    = cliflag.Config{Name: "bss-url", Usage: "boot script service base URL"}
	tenantURLFlag = cliflag.Config{Name: "tenant-url", Usage: "tenant authority base URL"}

	s3GatewayFlag   = cliflag.Config{Name: "s3-gateway", Usage: "S3-compatible gateway host:port"}
	s3ProtocolFlag  = cliflag.Config{Name: "s3-protocol", Usage: "http or https"}
	s3AccessKeyFlag = cliflag.Config{Name: "s3-access-key", Usage: "S3 access key"}
	s3SecretKeyFlag = cliflag.Config{Name: "s3-secret-key", Usage: "S3 secret key"}
	s3RegionFlag    = cliflag.Config{Name: "s3-region", Usage: "S3 region"}

	rootfsProviderFlag = cliflag.Config{Name: "default-rootfs-provider", Usage: "rootfs provider name checked against the known providers at startup; boot sets that name no provider use the no-op provider regardless"}

	metricsAddrFlag = cliflag.Config{Name: "metrics-addr", Usage: "address the Prometheus handler listens on"}
)

func registerFlags(fs *cliflag.Set, gc *globalConfig) {
	fs.Register(logLevelFlag, ffval.NewValueDefault(&gc.LogLevel, 0))
	fs.Register(redisAddrFlag, ffval.NewValueDefault(&gc.RedisAddr, ""))

	fs.Register(hsmURLFlag, &cliflag.URLValue{URL: &gc.HSMURL})
	fs.Register(pcsURLFlag, &cliflag.URLValue{URL: &gc.PCSURL})
	fs.Register(cfsURLFlag, &cliflag.URLValue{URL: &gc.CFSURL})
	fs.Register(imsURLFlag, &cliflag.URLValue{URL: &gc.IMSURL})
	fs.Register(bssURLFlag, &cliflag.URLValue{URL: &gc.BSSURL})
	fs.Register(tenantURLFlag, &cliflag.URLValue{URL: &gc.TenantURL})

	fs.Register(s3GatewayFlag, ffval.NewValueDefault(&gc.S3Gateway, ""))
	fs.Register(s3ProtocolFlag, ffval.NewValueDefault(&gc.S3Protocol, "https"))
	fs.Register(s3AccessKeyFlag, ffval.NewValueDefault(&gc.S3AccessKey, ""))
	fs.Register(s3SecretKeyFlag, ffval.NewValueDefault(&gc.S3SecretKey, ""))
	fs.Register(s3RegionFlag, ffval.NewValueDefault(&gc.S3Region, "default"))

	fs.Register(rootfsProviderFlag, ffval.NewValueDefault(&gc.RootfsProvider, ""))

	fs.Register(metricsAddrFlag, ffval.NewValueDefault(&gc.MetricsAddr, ":8080"))
}
