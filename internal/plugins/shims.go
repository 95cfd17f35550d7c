package plugins

import (
	"embed"
	"fmt"
)

//go:embed shims/*.js
var shims embed.FS

func shim(name string) (string, error) {
	b, err := shims.ReadFile("shims/" + name + ".js")
	if err != nil {
		return "", fmt.Errorf("no shim for %q: %w", name, err)
	}
	return string(b), nil
}
