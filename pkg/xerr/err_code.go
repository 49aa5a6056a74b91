package xerr

const (
	ErrInternalServer = 500 // HTTP 500

	ErrBadRequest   = 1000 // HTTP 400
	ErrInvalidInput = 1001 // HTTP 400

	ErrNotFound     = 1300 // HTTP 404
	ErrTaskNotFound = 1301 // HTTP 404

	// 加载任务文件
	ErrModuleLoad       = 2000
	ErrNoLoader         = 2001
	ErrUnsupportedShape = 2002

	// 注册与执行任务
	ErrDuplicateTask = 2101
	ErrMalformedTask = 2102
	ErrTaskCycle     = 2103
	ErrTaskTimeout   = 2104
)
