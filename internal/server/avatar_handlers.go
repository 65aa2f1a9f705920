package server

import (
	"log/slog"

	"vibewall/internal/featureflags"
	"vibewall/internal/imaging"
	"vibewall/internal/security"

	"github.com/gofiber/fiber/v2"
)

const fallbackAvatarSize = 128

// Avatar serves a user's profile image, or a generated placeholder when the
// backend has none. Only raster types are passed through; anything else,
// SVG included, gets the placeholder.
func (s *Server) Avatar(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")

	if s.featureFlags.Enabled(featureflags.ProfileImages, sess.UserID) {
		ctx, cancel := s.viewContext(c)
		defer cancel()
		img, err := s.sessions.Gateway(sess).FetchProfileImage(ctx, userID)
		if err == nil && len(img.Data) > 0 && security.ValidateImageType(img.ContentType) {
			c.Set(fiber.HeaderContentType, img.ContentType)
			c.Set(fiber.HeaderCacheControl, "private, max-age=300")
			return c.Send(img.Data)
		}
		if err != nil {
			s.logger.DebugContext(ctx, "avatar unavailable", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(imaging.DefaultAvatar(userID, fallbackAvatarSize))
}
