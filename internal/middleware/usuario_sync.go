package middleware

import (
	"mulita/internal/model"
	"mulita/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SyncUsuario mirrors the verified token claims into the usuarios table so
// notifications and order emails can resolve name/email/phone locally.
// The upsert is best effort: a failed sync never blocks the request.
func SyncUsuario(repo repository.UsuarioRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims != nil {
			id, _ := uuid.Parse(claims.UserID)
			u := &model.Usuario{
				ID:       id,
				Nombre:   claims.Nombre,
				Email:    claims.Email,
				Telefono: claims.Telefono,
				Rol:      claims.Rol,
			}
			if err := repo.Sync(c.Request.Context(), u); err != nil {
				log.Warn().Err(err).Str("usuario_id", claims.UserID).Msg("No se pudo sincronizar el perfil de usuario")
			}
		}
		c.Next()
	}
}
