package config

import (
	"os"
	"strings"
	"testing"
)

// FuzzWorkerConfigTOML feeds random-ish worker fields into a tiny TOML and
// ensures the loader does not panic.
func FuzzWorkerConfigTOML(f *testing.F) {
	f.Add("main.py", "python3", "A=1")
	f.Add("", "", "")
	f.Add("../x.py", "py", "=broken")

	f.Fuzz(func(t *testing.T, script, interp, env string) {
		clean := func(s string) string {
			return strings.NewReplacer("\"", "", "\\", "", "\n", "", "\r", "").Replace(s)
		}
		b := strings.Builder{}
		b.WriteString("[worker]\n")
		b.WriteString("script = \"" + clean(script) + "\"\n")
		b.WriteString("env = [\"" + clean(env) + "\"]\n")
		b.WriteString("[worker.launchers]\n")
		b.WriteString("linux = \"" + clean(interp) + "\"\n")
		tmp := t.TempDir() + "/fuzz.toml"
		if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
			t.Skip()
		}
		cfg, err := Load(tmp)
		if err != nil {
			return
		}
		_, _ = cfg.Launch() // must not panic
	})
}
