//go:build rp2350

package logx

// envLevel is set at link time, the MCU has no process environment:
//
//	tinygo build -ldflags "-X bringup-go/x/logx.envLevel=debug" ...
var envLevel string

func lookupEnv(key string) string {
	if key == EnvVar {
		return envLevel
	}
	return ""
}
