package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// UserAuthState 用户鉴权快照，仅用于服务端缓存
type UserAuthState struct {
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Active 账号是否处于可用状态
func (s *UserAuthState) Active() bool {
	return s != nil && strings.EqualFold(s.Status, constants.UserStatusActive)
}

// Accepts 令牌版本一致时视为有效，改密后旧令牌失效
func (s *UserAuthState) Accepts(tokenVersion uint64) bool {
	return s != nil && s.TokenVersion == tokenVersion
}

func userAuthStateKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{
		UserID:       user.ID,
		Status:       user.Status,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetUserAuthState 获取用户鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var state UserAuthState
	hit, err := GetJSON(ctx, userAuthStateKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserAuthState 写入用户鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userAuthStateKey(state.UserID), state, authStateCacheTTL)
}
