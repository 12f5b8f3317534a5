package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const maxKeyLength = 255

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

var documentExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// AvatarExtension 返回头像内容类型对应的扩展名；不支持的类型返回 false。
func AvatarExtension(contentType string) (string, bool) {
	ext, ok := avatarExtensions[normalizeContentType(contentType)]
	return ext, ok
}

// DocumentExtension 返回证书文档内容类型对应的扩展名。
func DocumentExtension(contentType string) (string, bool) {
	ext, ok := documentExtensions[normalizeContentType(contentType)]
	return ext, ok
}

func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// AvatarKey 每个档案只有一个头像对象：avatars/{profile}/avatar{ext}。
func AvatarKey(profileID, ext string) string {
	return fmt.Sprintf("avatars/%s/avatar%s", profileID, ext)
}

// CertificateKey 生成证书文档对象键：certificates/{profile}/{毫秒时间戳}-{文件名}。
func CertificateKey(profileID, filename, ext string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	name := slug.Make(base)
	if name == "" {
		name = "document"
	}
	if len(name) > 80 {
		name = strings.TrimRight(name[:80], "-")
	}
	return fmt.Sprintf("certificates/%s/%d-%s%s", profileID, now.UnixMilli(), name, ext)
}

// OwnsKey 校验对象键属于该档案且不含路径穿越。
func OwnsKey(profileID, key string) bool {
	if profileID == "" || key == "" || !utf8.ValidString(key) || len(key) > maxKeyLength {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	for _, prefix := range []string{"avatars/", "certificates/"} {
		if strings.HasPrefix(key, prefix+profileID+"/") {
			return true
		}
	}
	return false
}
