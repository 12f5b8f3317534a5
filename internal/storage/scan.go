package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示上传内容未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// Scanner 在上传前检查文件内容。
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 命令扫描文件。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 构造扫描器，address 形如 tcp://host:3310。
func NewClamdScanner(address string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(address)}
}

// Scan 返回 ErrInfected 或扫描过程中的错误。
func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	var infected bool
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			infected = true
		default:
			return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
		}
	}
	if infected {
		return ErrInfected
	}
	return nil
}

// NoopScanner 在未启用 clamd 时使用。
type NoopScanner struct{}

func (NoopScanner) Scan(io.Reader) error { return nil }
