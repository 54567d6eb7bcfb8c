package server

import "strings"

// Variable is one configurable input a blueprint exposes.
type Variable struct {
	Name    string `json:"name"`
	EnvKey  string `json:"env_key"`
	Default string `json:"default"`
	Rules   string `json:"rules,omitempty"`
}

// Blueprint is the template a server is instantiated from: the
// container image, the startup invocation with {{VAR}} tokens, and
// the process directives the daemon needs to supervise it.
type Blueprint struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Image       string     `json:"image"`
	Startup     string     `json:"startup"`
	Variables   []Variable `json:"variables"`
	StartupDone []string   `json:"startup_done"`
	StopCommand string     `json:"stop_command"`
	HasInstall  bool       `json:"has_install"`
}

// ResolveVariables merges per-server overrides over the blueprint
// defaults, keyed by env key. Overrides for variables the blueprint
// does not declare are dropped.
func (b *Blueprint) ResolveVariables(overrides map[string]string) map[string]string {
	vars := make(map[string]string, len(b.Variables))
	for _, v := range b.Variables {
		vars[v.EnvKey] = v.Default
		if ov, ok := overrides[v.EnvKey]; ok {
			vars[v.EnvKey] = ov
		}
	}
	return vars
}

// Invocation substitutes resolved variables into the startup string.
// Tokens use the {{KEY}} pattern; unknown tokens are left untouched
// so a misconfigured blueprint is visible rather than silently blank.
func (b *Blueprint) Invocation(vars map[string]string) string {
	out := b.Startup
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}
