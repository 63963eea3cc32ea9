package httpapi

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/matt-ortiz/PyScheduler/internal/common"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login verifies the username/password pair against the stored bcrypt
// hash and mints a JWT, following the pack's GetByUsername →
// CompareHashAndPassword → GenerateToken shape
// (jonesrussell-north-cloud/auth/internal/handlers/auth.go).
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindAuth, "invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		common.Error(c, common.NewErrNo(common.KindAuth, "invalid credentials"))
		return
	}

	token, err := generateJWT(s.cfg.SecretKey, user.ID, user.Username, user.IsAdmin)
	if err != nil {
		common.Error(c, common.Wrap(common.KindInternal, "generate token: %v", err))
		return
	}

	_ = s.store.TouchLastLogin(ctx, user.ID, nowUTC())
	common.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
			"theme":    user.Theme,
			"timezone": user.Timezone,
		},
	})
}
