package catalog

import "errors"

// 文件目录相关错误
var (
	// ErrFileNotFound 文件未注册
	ErrFileNotFound = errors.New("file not found in catalog")
	// ErrFileNameRequired 文件名必填
	ErrFileNameRequired = errors.New("file name is required")
)
