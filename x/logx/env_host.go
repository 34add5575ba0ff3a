//go:build !rp2350

package logx

import "os"

func lookupEnv(key string) string {
	v, _ := os.LookupEnv(key)
	return v
}
