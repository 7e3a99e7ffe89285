// Package logging provides structured logging for monologue runs.
//
// Logs are JSON lines written through log/slog, either to stderr or to
// {dir}/debug.log. A debate attaches its ID, and each reasoner its name and
// the current round, so a single file can be filtered per participant:
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	a := logger.WithDebate(id).WithParticipant("debater-a")
//	a.WithRound(2).Info("turn spoken", "chars", len(reply))
//
// Child loggers share the parent's output; closing any of them closes the
// file once. [RotatingWriter] rolls debug.log over to debug.log.1..N when it
// grows past the configured size.
package logging
