package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"daemon", "check", "config", "status", "version", "completion"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"hwmond", "commit:", "built:", "go:", "os/arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q", want)
		}
	}
}

func TestUnknownSubcommand(t *testing.T) {
	if _, err := execute(t, "nonexistent"); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
}

func TestConfigSampleStdout(t *testing.T) {
	sampleOutput, sampleForce = "", false
	out, err := execute(t, "config", "sample")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[daemon]") {
		t.Errorf("sample missing [daemon]:\n%s", out)
	}
}

func TestConfigSampleFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmond.toml")
	if err := os.WriteFile(path, []byte("# mine\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sampleOutput, sampleForce = "", false })

	if _, err := execute(t, "config", "sample", "-o", path); err == nil {
		t.Fatal("expected error for existing file")
	}
	sampleForce = false
	if _, err := execute(t, "config", "sample", "-o", path, "--force"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "[daemon]") {
		t.Error("file was not overwritten")
	}
}

func TestConfigCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmond.toml")
	if err := os.WriteFile(path, []byte("[daemon]\ndisplay_interval = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { checkConfigPath = "" })

	out, err := execute(t, "config", "check", "-c", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, path+": OK") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigCheckInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmond.toml")
	if err := os.WriteFile(path, []byte("[daemon]\ndisplay_interval = \"often\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { checkConfigPath = "" })

	if _, err := execute(t, "config", "check", "-c", path); err == nil {
		t.Fatal("expected error for bad config")
	}
}

func TestCheckUnknownMonitor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmond.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { checkConfig = "" })

	if _, err := execute(t, "check", "-c", path, "fans"); err == nil {
		t.Fatal("expected error for unknown monitor")
	}
}

func TestCheckLoadAvg(t *testing.T) {
	dir := t.TempDir()
	loadavg := filepath.Join(dir, "loadavg")
	if err := os.WriteFile(loadavg, []byte("0.10 0.20 0.30 1/100 4242\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "hwmond.toml")
	conf := "[monitors.loadavg]\npath = \"" + loadavg + "\"\n"
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { checkConfig = "" })

	out, err := execute(t, "check", "-c", path, "loadavg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "LOAD AVERAGE") {
		t.Errorf("output missing title:\n%s", out)
	}
}
