// Package logger builds the *slog.Logger instances used across garagedesk and
// provides attribute constructors that keep key names consistent between the
// notification store, the push connection and the dev backend.
//
// New assembles a text or JSON handler from functional options and wraps it
// with a decorator that pulls request-scoped values (for example the request
// id set by pkg/requestid) out of the context on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "notifywatch"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "push channel connected",
//	    logger.UserID(userID),
//	    logger.State("connected"),
//	)
//
// Error and UserID return an empty attribute for nil input so callers can pass
// them unconditionally.
package logger
