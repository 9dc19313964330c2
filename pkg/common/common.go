package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// UUIDint64 returns a cluster-unique int64 identifier. The snowflake node id
// can be set with the TEXTMINT_NODE_ID environment variable when multiple
// instances share one database.
func UUIDint64() int64 {
	idNodeOnce.Do(func() {
		var nodeID int64
		if v := os.Getenv("TEXTMINT_NODE_ID"); v != "" {
			_, _ = fmt.Sscan(v, &nodeID)
		}
		var err error
		idNode, err = snowflake.NewNode(nodeID % 1024)
		if err != nil {
			panic(err)
		}
	})
	return idNode.Generate().Int64()
}

// RandomHex returns n random bytes hex encoded (2n characters).
func RandomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func IfEmptyStr(src string, def string) string {
	if src == "" {
		return def
	}
	return src
}
