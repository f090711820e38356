package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lumen-optics/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
)

// 请求主体可以是 user:<id> 或 role:<name>；角色之间可继承
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrUnknownRole 角色没有任何策略或继承关系
	ErrUnknownRole = errors.New("unknown role")
)

// Policy 角色策略
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service 管理端 RBAC，策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有策略
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceUser 先按用户分配的角色判定；admin 账号再按同名角色兜底
func (s *Service) EnforceUser(userID uint, accountRole, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	object, action := NormalizeObject(obj), NormalizeAction(act)
	allow, err := s.enforcer.Enforce(SubjectForUser(userID), object, action)
	if err != nil || allow {
		return allow, err
	}
	if strings.TrimSpace(accountRole) != constants.UserRoleAdmin {
		return false, nil
	}
	return s.enforcer.Enforce(roleSubject(constants.UserRoleAdmin), object, action)
}

// GrantRolePolicy 为角色授予资源动作
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if err := s.ready(); err != nil {
		return err
	}
	subject, err := normalizeRole(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return fmt.Errorf("action is required")
	}
	if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// InheritRole child 继承 parent 的全部策略
func (s *Service) InheritRole(child, parent string) error {
	if err := s.ready(); err != nil {
		return err
	}
	childSubject, err := normalizeRole(child)
	if err != nil {
		return err
	}
	parentSubject, err := normalizeRole(parent)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", childSubject, parentSubject); err != nil {
		return fmt.Errorf("link role inheritance failed: %w", err)
	}
	return nil
}

// SetUserRoles 覆盖用户角色，角色须已存在
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return fmt.Errorf("user id is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	subjects := make([]string, 0, len(roles))
	for _, role := range roles {
		subject, err := normalizeRole(role)
		if err != nil {
			return err
		}
		known, err := s.roleExists(subject)
		if err != nil {
			return err
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownRole, strings.TrimPrefix(subject, rolePrefix))
		}
		subjects = append(subjects, subject)
	}

	user := SubjectForUser(userID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, user); err != nil {
		return fmt.Errorf("clear user roles failed: %w", err)
	}
	for _, subject := range subjects {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", user, subject); err != nil {
			return fmt.Errorf("assign user role failed: %w", err)
		}
	}
	return nil
}

// UserRoles 用户直接分配的角色名（不含前缀，已排序）
func (s *Service) UserRoles(userID uint) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subjects, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			roles = append(roles, strings.TrimPrefix(subject, rolePrefix))
		}
	}
	sort.Strings(roles)
	return roles, nil
}

func (s *Service) roleExists(subject string) (bool, error) {
	policies, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return false, err
	}
	if len(policies) > 0 {
		return true, nil
	}
	parents, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0, subject)
	if err != nil {
		return false, err
	}
	return len(parents) > 0, nil
}

// SubjectForUser 用户主体标识
func SubjectForUser(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func roleSubject(name string) string {
	return rolePrefix + name
}

func normalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if name == "" {
		return "", fmt.Errorf("role is required")
	}
	return roleSubject(name), nil
}

// NormalizeObject 去掉 /api/v1 前缀，策略按路由模板书写
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction HTTP 方法大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
