package globals

import "github.com/hashicorp/go-hclog"

var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "ryte-gateway",
	Level: hclog.LevelFromString("INFO"),
})
