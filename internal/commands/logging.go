package commands

import (
	"strings"

	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const commandModuleRoot = "feishu2md.commands"

// CommandLogger returns the commands module logger for a handler group, tagged with the
// group name so every execution can be filtered by it.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":     "command",
		"command_group": name,
	})
}
