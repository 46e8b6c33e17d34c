package rootfs

import "fmt"

// sbps is the one concrete provider named in spec §4.2: "currently one
// provider, sbps, producing root=sbps:...:<passthrough>".
type sbps struct{}

func NewSBPS() Provider { return sbps{} }

func (sbps) Name() string { return "sbps" }

func (sbps) RootParam(passthrough string) string {
	return fmt.Sprintf("root=sbps:...:%s", passthrough)
}

func (sbps) MemDumpParam() string { return "" }
