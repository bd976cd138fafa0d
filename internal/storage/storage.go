// Package storage 负责上传文件的落盘与访问路径生成
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	// ErrFileTooLarge 超过配置的上传大小上限
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType 内容嗅探得到的类型不在白名单内
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmptyFile 空文件
	ErrEmptyFile = errors.New("empty file")
)

// 允许的图片类型，按内容嗅探结果判断，不信任客户端的扩展名和 Content-Type
var (
	ProfileImageTypes = []string{"image/jpeg", "image/png", "image/gif"}
	BlogImageTypes    = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
)

// Store 文件存储接口
type Store interface {
	// Save 校验并保存文件，返回可对外访问的 URL 路径
	Save(name string, r io.Reader, allowed []string) (string, error)
	// Remove 按 URL 路径删除文件，文件不存在时不报错
	Remove(url string) error
}

// LocalStore 本地磁盘存储，文件通过静态路由对外暴露
type LocalStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	logger    *zap.Logger
}

// NewLocalStore 创建本地存储，目录不存在时自动创建
func NewLocalStore(dir, urlPrefix string, maxBytes int64, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxBytes:  maxBytes,
		logger:    logger,
	}, nil
}

// Dir 上传目录
func (s *LocalStore) Dir() string { return s.dir }

// URLPrefix 静态访问前缀
func (s *LocalStore) URLPrefix() string { return s.urlPrefix }

// ProfilePictureName 头像文件名前缀
func ProfilePictureName(userID int64) string {
	return fmt.Sprintf("user_%d_%s", userID, uuid.NewString())
}

// BlogImageName 博客图片文件名前缀
func BlogImageName() string {
	return "blog_" + uuid.NewString()
}

// Save 读取至多 maxBytes+1 字节判断是否超限，扩展名取自嗅探结果
func (s *LocalStore) Save(name string, r io.Reader, allowed []string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	if !lo.ContainsBy(allowed, func(t string) bool { return mtype.Is(t) }) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	filename := filepath.Base(name) + mtype.Extension()
	dst := filepath.Join(s.dir, filename)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close file: %w", err)
	}

	s.logger.Info("file stored",
		zap.String("file", filename),
		zap.String("mime", mtype.String()),
		zap.Int("size", len(data)),
	)
	return path.Join(s.urlPrefix, filename), nil
}

// Remove 删除 URL 对应的文件，只接受本存储前缀下的路径
func (s *LocalStore) Remove(url string) error {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, s.urlPrefix+"/"))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
