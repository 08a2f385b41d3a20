package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagTasks   = "tasks"

	// Serve command flags
	FlagAddr = "addr"

	// Layout command flags
	FlagWidth = "width"
)

// flagKeys maps flags that override a config field to that field's key.
// Other flags bind under their own name.
var flagKeys = map[string]string{
	FlagTasks: "tasks.file",
	FlagAddr:  "server.addr",
}

// debugLogDir holds the view command's rotated debug log.
const debugLogDir = ".stagegraph"

// bindFlags binds every flag in fs to v.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		_ = v.BindPFlag(key, f)
	})
}
