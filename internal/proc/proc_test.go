package proc

import "testing"

func TestUpsertEnv(t *testing.T) {
	env := []string{"HOME=/home/me", "DISPLAY=:0"}
	env = UpsertEnv(env, "DISPLAY", ":15")
	if env[1] != "DISPLAY=:15" {
		t.Errorf("replace: %v", env)
	}
	env = UpsertEnv(env, "XAUTHORITY", "/tmp/xauth")
	if env[len(env)-1] != "XAUTHORITY=/tmp/xauth" {
		t.Errorf("append: %v", env)
	}
	if len(env) != 3 {
		t.Errorf("unexpected length: %v", env)
	}
}
