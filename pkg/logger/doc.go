// Package logger builds *slog.Logger instances with a consistent shape across
// the service: JSON in production, text in development, static service
// attributes, and request-scoped values pulled from context.Context on every
// record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "seatshare"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "invite accepted", logger.FamilyID(familyID), logger.InviteID(inviteID))
//
// Attribute helpers in attr.go keep key names stable so log queries keep
// working as code moves around.
package logger
