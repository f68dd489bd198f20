package facts

import "strings"

// ActionKind classifies what a sub-action does to the infrastructure.
type ActionKind string

const (
	ActionDeploy   ActionKind = "DEPLOY"
	ActionDelete   ActionKind = "DELETE"
	ActionRestart  ActionKind = "RESTART"
	ActionScale    ActionKind = "SCALE"
	ActionTransfer ActionKind = "TRANSFER"
	ActionExec     ActionKind = "EXEC"
	ActionWrite    ActionKind = "WRITE"
	ActionRead     ActionKind = "READ"
	ActionUnknown  ActionKind = "UNKNOWN"
)

// classifierPattern maps a lowercase substring to an action kind.
// Order matters: destructive and mutating kinds are checked before
// read-only ones so that "kubectl delete" never classifies as READ
// because of an embedded "get".
type classifierPattern struct {
	substring string
	kind      ActionKind
}

var classifierPatterns = []classifierPattern{
	// Destructive
	{"rm -rf", ActionDelete},
	{"rm -r", ActionDelete},
	{"rm ", ActionDelete},
	{"rmdir", ActionDelete},
	{"delete from", ActionDelete},
	{"drop table", ActionDelete},
	{"drop database", ActionDelete},
	{"kubectl delete", ActionDelete},
	{"delete", ActionDelete},
	{"truncate", ActionDelete},
	{"destroy", ActionDelete},

	// Scaling (before deployment: "kubectl scale deployment ..." must
	// not classify as DEPLOY via the "deploy" substring)
	{"kubectl scale", ActionScale},
	{"--replicas", ActionScale},
	{"autoscal", ActionScale},
	{"scale ", ActionScale},

	// Restart
	{"systemctl restart", ActionRestart},
	{"service restart", ActionRestart},
	{"restart", ActionRestart},
	{"reboot", ActionRestart},

	// Deployment
	{"kubectl apply", ActionDeploy},
	{"kubectl rollout", ActionDeploy},
	{"helm upgrade", ActionDeploy},
	{"helm install", ActionDeploy},
	{"terraform apply", ActionDeploy},
	{"deploy", ActionDeploy},
	{"release", ActionDeploy},

	// Data movement
	{"scp ", ActionTransfer},
	{"rsync", ActionTransfer},
	{"sftp", ActionTransfer},
	{"aws s3 cp", ActionTransfer},
	{"aws s3 sync", ActionTransfer},

	// Arbitrary execution
	{"| bash", ActionExec},
	{"| sh", ActionExec},
	{"bash -c", ActionExec},
	{"sh -c", ActionExec},
	{"eval ", ActionExec},
	{"exec ", ActionExec},
	{"python", ActionExec},

	// Mutation
	{"insert into", ActionWrite},
	{"update ", ActionWrite},
	{"create ", ActionWrite},
	{"mkdir", ActionWrite},
	{"touch ", ActionWrite},
	{"chmod", ActionWrite},
	{"chown", ActionWrite},

	// Read-only
	{"select ", ActionRead},
	{"kubectl get", ActionRead},
	{"kubectl describe", ActionRead},
	{"vault read", ActionRead},
	{"cat ", ActionRead},
	{"ls ", ActionRead},
	{"echo ", ActionRead},
	{"tail ", ActionRead},
	{"head ", ActionRead},
	{"grep ", ActionRead},
}

// readOnlyCommands are bare commands that are read-only when invoked
// without arguments, so the substring table cannot catch them.
var readOnlyCommands = map[string]ActionKind{
	"ls":   ActionRead,
	"pwd":  ActionRead,
	"date": ActionRead,
	"echo": ActionRead,
}

// ClassifyAction derives the action kind from a sub-action's canonical
// text. Unrecognized commands classify as UNKNOWN, which is not a safe
// default: rules scoped to any action kind still apply to UNKNOWN
// actions, so nothing slips through by being unclassifiable.
func ClassifyAction(text string) ActionKind {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ActionUnknown
	}

	if kind, ok := readOnlyCommands[lowered]; ok {
		return kind
	}

	for _, p := range classifierPatterns {
		if strings.Contains(lowered, p.substring) {
			return p.kind
		}
	}
	return ActionUnknown
}
