package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/service"
	"github.com/moodlink/internal/zodiac"
)

type linkPartnerRequest struct {
	Code string `json:"code"`
}

// EnsureProfile 幂等地补全当前用户资料
func (a *API) EnsureProfile(c *gin.Context) {
	user, err := a.users.EnsureProfile(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "用户不存在")
			return
		}
		a.log.Error("ensure profile failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "补全资料失败")
		return
	}

	payload := userPayload(user)
	if user.ZodiacSign != "" {
		payload["zodiac_name"] = zodiac.Sign(user.ZodiacSign).Name(requestLanguage(c))
	}
	c.JSON(http.StatusOK, gin.H{"user": payload})
}

// GetPartnerCode 返回当前用户的绑定码
func (a *API) GetPartnerCode(c *gin.Context) {
	code, err := a.users.PartnerCode(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "用户不存在")
			return
		}
		a.log.Error("partner code failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取绑定码失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner_code": code})
}

// LinkPartner 通过对方的绑定码建立伴侣关系
func (a *API) LinkPartner(c *gin.Context) {
	var req linkPartnerRequest
	if !bindJSON(c, &req, "绑定码格式错误") {
		return
	}

	user, err := a.users.LinkPartner(currentUserID(c), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerCodeNotFound):
			respondError(c, http.StatusNotFound, "绑定码不存在")
		case errors.Is(err, service.ErrPartnerSelf):
			respondError(c, http.StatusBadRequest, "不能绑定自己")
		case errors.Is(err, service.ErrPartnerAlreadyLinked):
			respondError(c, http.StatusConflict, "已绑定其他伴侣")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusUnauthorized, "用户不存在")
		default:
			a.log.Error("link partner failed", "user_id", currentUserID(c), "error", err)
			respondError(c, http.StatusInternalServerError, "绑定失败")
		}
		return
	}

	a.log.Info("partner linked", "user_id", user.ID, "partner_id", *user.PartnerID)
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}
