package core

import (
	"errors"
	"strconv"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持 errors.Is：同 Module、同 Code 即视为同一类错误
//
// 使用场景：
//   - Store 错误：NOT_FOUND
//   - Recommend 错误：UNKNOWN_USER, UNAVAILABLE
//   - Config 错误：INVALID_CONFIG
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNKNOWN_USER"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recommend", "config"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 按 Module + Code 匹配，Message 不参与比较。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效

	// 推荐相关错误代码
	ErrorCodeUnknownUser   = "UNKNOWN_USER"   // 用户 ID 未出现在评分数据中
	ErrorCodeInvalidConfig = "INVALID_CONFIG" // 配置非法（阈值、TopN 等）
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleRatings   = "ratings"   // 评分快照模块
	ModuleRecommend = "recommend" // 推荐模块
	ModuleConfig    = "config"    // 配置模块
)

// 推荐相关的哨兵错误，配合 errors.Is 使用。
var (
	// ErrUnknownUser 表示请求的用户没有分配过索引
	ErrUnknownUser = NewDomainError(ModuleRecommend, ErrorCodeUnknownUser, "recommend: unknown user")

	// ErrInvalidConfig 表示构造时传入了非法配置
	ErrInvalidConfig = NewDomainError(ModuleConfig, ErrorCodeInvalidConfig, "config: invalid configuration")

	// ErrSnapshotClosed 表示评分快照已经释放
	ErrSnapshotClosed = NewDomainError(ModuleRatings, ErrorCodeUnavailable, "ratings: snapshot closed")

	// ErrInvalidRating 表示评分值不是有限实数
	ErrInvalidRating = NewDomainError(ModuleRatings, ErrorCodeInvalidInput, "ratings: invalid rating")
)

// NewUnknownUserError 创建携带用户 ID 的 UNKNOWN_USER 错误。
func NewUnknownUserError(userID string) *DomainError {
	return NewDomainError(ModuleRecommend, ErrorCodeUnknownUser, "recommend: unknown user "+strconv.Quote(userID))
}

// NewInvalidConfigError 创建 INVALID_CONFIG 错误。
func NewInvalidConfigError(message string) *DomainError {
	return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig, "config: "+message)
}

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsUnknownUser 检查错误是否为 UNKNOWN_USER
func IsUnknownUser(err error) bool {
	return errors.Is(err, ErrUnknownUser)
}

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
