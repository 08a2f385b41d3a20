package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/stagegraph/internal/config"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool(FlagVerbose, false, "")
	fs.String(FlagTasks, "", "")
	fs.String(FlagAddr, "", "")
	return fs
}

func TestBindFlags_OverridesConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	v := viper.New()
	fs := newFlagSet()
	bindFlags(v, fs)
	if err := fs.Parse([]string{"--tasks", "board.yaml", "--addr", ":9090", "--verbose"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Tasks.File != "board.yaml" {
		t.Errorf("Tasks.File = %q, want board.yaml", cfg.Tasks.File)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if !v.GetBool(FlagVerbose) {
		t.Error("verbose should bind under its own name")
	}
}

func TestBindFlags_UnsetFlagsKeepDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	v := viper.New()
	bindFlags(v, newFlagSet())

	cfg, err := config.LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	def := config.Default()
	if cfg.Tasks.File != def.Tasks.File || cfg.Server.Addr != def.Server.Addr {
		t.Errorf("got tasks=%q addr=%q, want defaults", cfg.Tasks.File, cfg.Server.Addr)
	}
}
