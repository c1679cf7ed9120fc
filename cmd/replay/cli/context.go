package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/engine"
	"github.com/replayhq/cli/cmd/replay/cli/logging"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/session"
	"github.com/replayhq/cli/cmd/replay/cli/sessionid"
	"github.com/replayhq/cli/cmd/replay/cli/settings"
	"github.com/spf13/cobra"
)

// sessionFlags are the common flags commands use to pick a session.
type sessionFlags struct {
	transcript string
	sessionID  string
}

// workspace bundles everything a command needs to operate on one session.
type workspace struct {
	Settings       *settings.Settings
	Session        *session.Session
	Engine         *engine.Engine
	Branches       *branch.Manager
	States         *session.StateStore
	TranscriptPath string
}

// loadWorkspace resolves the target session, parses its transcript, and
// builds the engine over it.
//
// The transcript path comes from --transcript, or from the saved state of
// the current session. Explicitly pointing at a transcript also records it
// as the current session for later invocations.
func loadWorkspace(ctx context.Context, flags sessionFlags) (*workspace, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if !cfg.Enabled {
		return nil, errors.New("replay is disabled in .replay/settings.json")
	}
	logging.SetLogLevelGetter(func() string { return cfg.LogLevel })

	sessionID := flags.sessionID
	transcriptPath := flags.transcript

	if transcriptPath != "" && sessionID == "" {
		sessionID = sessionid.ReplaySessionID(paths.ExtractSessionIDFromTranscriptPath(transcriptPath))
	}
	if sessionID == "" {
		sessionID, err = paths.ReadCurrentSession()
		if err != nil {
			return nil, err
		}
		if sessionID == "" {
			return nil, errors.New("no session selected; pass --transcript <path> to a session log")
		}
	}

	if err := logging.Init(sessionID); err != nil {
		// Logging is best-effort; the engine works without it.
		fmt.Fprintf(os.Stderr, "warning: logging unavailable: %v\n", err)
	}

	states, err := session.NewStateStore()
	if err != nil {
		return nil, err
	}

	state, err := states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if transcriptPath == "" {
		if state == nil || state.TranscriptPath == "" {
			return nil, fmt.Errorf("no transcript recorded for session %s; pass --transcript <path>", sessionID)
		}
		transcriptPath = state.TranscriptPath
	}

	sess, err := session.ParseFile(transcriptPath, sessionID)
	if err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	branchStore, err := branch.NewStore()
	if err != nil {
		return nil, err
	}
	branches, err := branch.NewManager(branchStore, sessionID)
	if err != nil {
		return nil, err
	}
	timelines, err := engine.NewTimelineStore()
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	root := paths.RepoRootOr(cwd)

	eng, err := engine.New(sess, branches, states, timelines, root)
	if err != nil {
		return nil, err
	}

	// Remember the session for the next invocation.
	if flags.transcript != "" {
		if err := paths.WriteCurrentSession(sessionID); err != nil {
			return nil, err
		}
		if state == nil {
			state = &session.State{SessionID: sessionID, LiveTurnCount: len(sess.Turns)}
		}
		state.TranscriptPath = flags.transcript
		if err := states.Save(ctx, state); err != nil {
			return nil, err
		}
	}

	return &workspace{
		Settings:       cfg,
		Session:        sess,
		Engine:         eng,
		Branches:       branches,
		States:         states,
		TranscriptPath: transcriptPath,
	}, nil
}

// registerSessionFlags adds the shared session-selection flags to a command.
func registerSessionFlags(cmd *cobra.Command, flags *sessionFlags) {
	cmd.Flags().StringVar(&flags.transcript, "transcript", "", "Path to the session's JSONL transcript")
	cmd.Flags().StringVar(&flags.sessionID, "session", "", "Session ID (defaults to the current session)")
}
