package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复错误，客户端可据此给出提示
// - 5xxx：系统错误
const (
	OK               = 0
	ValidationFailed = 4000
	ResourceMissing  = 4004
	QuotaExceeded    = 4030
	SlugTaken        = 4090
	UsernameTaken    = 4091
	SystemError      = 5000
)
