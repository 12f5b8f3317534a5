package storage

import (
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断错误是否表示对象不存在。删除已不存在的对象视为成功。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	if resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket" {
		return true
	}
	// 某些网关只返回纯文本错误。
	return strings.Contains(strings.ToLower(err.Error()), "specified key does not exist")
}
