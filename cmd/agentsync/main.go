package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kazz187/agentsync/internal/config"
	"github.com/kazz187/agentsync/pkg/clog"
)

var (
	app = kingpin.New("agentsync", "Reconcile agent definitions across user and project scopes")

	syncCmd             = app.Command("sync", "Scan both scopes and apply the reconciliation plan").Default()
	syncCopyToProject   = syncCmd.Flag("copy-to-project", "Copy user scope agents into the project scope").Bool()
	syncPruneDeprecated = syncCmd.Flag("prune-deprecated", "Remove deprecated agents that are already registered").Bool()
	syncDryRun          = syncCmd.Flag("dry-run", "Print the plan without changing anything").Bool()
	syncYes             = syncCmd.Flag("yes", "Apply without asking for confirmation").Short('y').Bool()

	listCmd = app.Command("list", "List registered agents")

	enableCmd   = app.Command("enable", "Enable an agent")
	enableID    = enableCmd.Arg("id", "Agent identifier").Required().String()
	enableScope = enableCmd.Flag("scope", "Scope to record the flag in").Default("project").Enum("user", "project")

	disableCmd   = app.Command("disable", "Disable an agent")
	disableID    = disableCmd.Arg("id", "Agent identifier").Required().String()
	disableScope = disableCmd.Flag("scope", "Scope to record the flag in").Default("project").Enum("user", "project")

	removeCmd   = app.Command("remove", "Unregister an agent")
	removeID    = removeCmd.Arg("id", "Agent identifier").Required().String()
	removeScope = removeCmd.Flag("scope", "Scope to remove the agent from").Default("project").Enum("user", "project")
	removePurge = removeCmd.Flag("purge", "Also delete the definition files").Bool()

	diffCmd = app.Command("diff", "Show the difference between the user and project definitions of an agent")
	diffID  = diffCmd.Arg("id", "Agent identifier").Required().String()

	deprecatedCmd = app.Command("deprecated", "List deprecated agent identifiers")

	parseCmd  = app.Command("parse", "Parse a definition file and print its header")
	parsePath = parseCmd.Arg("path", "Definition file").Required().ExistingFile()

	watchCmd             = app.Command("watch", "Sync whenever an agents directory changes")
	watchCopyToProject   = watchCmd.Flag("copy-to-project", "Copy user scope agents into the project scope").Bool()
	watchPruneDeprecated = watchCmd.Flag("prune-deprecated", "Remove deprecated agents that are already registered").Bool()

	serveCmd   = app.Command("serve", "Serve the HTTP API")
	serveWatch = serveCmd.Flag("watch", "Also sync whenever an agents directory changes").Bool()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	closeLog := setupLogger(env)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, env); err != nil {
		slog.Error("command failed", "command", command, clog.ErrorAttributeKey, err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, env *config.Env) error {
	a, err := newApp(ctx, env, os.Stdout)
	if err != nil {
		return err
	}

	switch command {
	case syncCmd.FullCommand():
		return a.runSync(ctx, syncOptions(*syncCopyToProject, *syncPruneDeprecated, *syncDryRun), a.confirmer(*syncYes))
	case listCmd.FullCommand():
		return a.runList(ctx)
	case enableCmd.FullCommand():
		return a.runSetEnabled(ctx, *enableID, *enableScope, true)
	case disableCmd.FullCommand():
		return a.runSetEnabled(ctx, *disableID, *disableScope, false)
	case removeCmd.FullCommand():
		return a.runRemove(ctx, *removeID, *removeScope, *removePurge)
	case diffCmd.FullCommand():
		return a.runDiff(ctx, *diffID)
	case deprecatedCmd.FullCommand():
		return a.runDeprecated()
	case parseCmd.FullCommand():
		return a.runParse(*parsePath)
	case watchCmd.FullCommand():
		return a.runWatch(ctx, syncOptions(*watchCopyToProject, *watchPruneDeprecated, false))
	case serveCmd.FullCommand():
		return a.runServe(ctx, *serveWatch)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// setupLogger installs the default slog logger. Logs go to a rotating file
// when LOG_FILE is set and to stderr otherwise.
func setupLogger(env *config.Env) func() {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if env.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   env.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		w = lj
		closeFn = func() { _ = lj.Close() }
	}

	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewTextHandler(w, clog.WithLevel(level), clog.WithColor(env.LogFile == ""))
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
	return closeFn
}
